package diag

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys reported by the compiler.
const (
	KeyAlreadyDefined                 = "compiler.err.already.defined"
	KeyAlreadyDefinedStaticImport     = "compiler.err.already.defined.static.single.import"
	KeyAlreadyDefinedSingleImport     = "compiler.err.already.defined.single.import"
	KeyAlreadyDefinedThisUnit         = "compiler.err.already.defined.this.unit"
	KeyAlreadyAnnotated               = "compiler.err.already.annotated"
	KeyCantAccess                     = "compiler.err.cant.access"
	KeyCantResolve                    = "compiler.err.cant.resolve"
	KeyCantResolveLocation            = "compiler.err.cant.resolve.location"
	KeyCyclicInheritance              = "compiler.err.cyclic.inheritance"
	KeyDoesntExist                    = "compiler.err.doesnt.exist"
	KeyDuplicateAnnotation            = "compiler.err.duplicate.annotation"
	KeyDuplicateClass                 = "compiler.err.duplicate.class"
	KeyIllegalCombination             = "compiler.err.illegal.combination.of.modifiers"
	KeyImportRequiresCanonical        = "compiler.err.import.requires.canonical"
	KeyIntfExpectedHere               = "compiler.err.intf.expected.here"
	KeyNoIntfExpectedHere             = "compiler.err.no.intf.expected.here"
	KeyModNotAllowedHere              = "compiler.err.mod.not.allowed.here"
	KeyNameClashSameErasure           = "compiler.err.name.clash.same.erasure"
	KeyRepeatedInterface              = "compiler.err.repeated.interface"
	KeyCantInheritFromFinal           = "compiler.err.cant.inherit.from.final"
	KeyIncompatibleThrown             = "compiler.err.incompatible.types"
	KeyPkgClashesWithClass            = "compiler.err.pkg.clashes.with.class.of.same.name"
	KeyClashWithPkg                   = "compiler.err.clash.with.pkg.of.same.name"
	KeyNotAnnotationType              = "compiler.err.not.annotation.type"
	KeyAnnotationMissingValue         = "compiler.err.annotation.missing.default.value"
	KeyCantResolveElement             = "compiler.err.cant.resolve.annotation.element"
	KeyClassPublicInFile              = "compiler.err.class.public.should.be.in.file"
	KeyFatalNoJavaLang                = "compiler.misc.fatal.err.no.java.lang"
	KeyFatalCantLocateCtor            = "compiler.misc.fatal.err.cant.locate.ctor"
	KeyUncompilable                   = "compiler.misc.uncompilable.source"
	KeyWarnCoupling                   = "compiler.warn.source.cant.overwrite.class"
	KeyWarnDeprecatedAnnotation       = "compiler.warn.missing.deprecated.annotation"
	KeyNoteEnumValuesDoc              = "compiler.misc.enum.values.doc"
	KeyNoteEnumValueOfDoc             = "compiler.misc.enum.valueof.doc"
	KeyTypeFoundReq                   = "compiler.err.type.found.req"
	KeyWrongNumberTypeArgs            = "compiler.err.wrong.number.type.args"
	KeyAttributeNotConstant           = "compiler.err.attribute.value.must.be.constant"
	KeyStaticImportOnlyClasses        = "compiler.err.static.imp.only.classes.and.interfaces"
	KeyDuplicateAnnotationNoContainer = "compiler.err.duplicate.annotation.missing.container"
)

var english = map[string]string{
	KeyAlreadyDefined:                 "%s is already defined in %s",
	KeyAlreadyDefinedStaticImport:     "%s is already defined in a static single-type import",
	KeyAlreadyDefinedSingleImport:     "%s is already defined in a single-type import",
	KeyAlreadyDefinedThisUnit:         "%s is already defined in this compilation unit",
	KeyAlreadyAnnotated:               "%s %s has already been annotated",
	KeyCantAccess:                     "cannot access %s: %s",
	KeyCantResolve:                    "cannot find symbol: %s",
	KeyCantResolveLocation:            "cannot find symbol: %s %s in %s",
	KeyCyclicInheritance:              "cyclic inheritance involving %s",
	KeyDoesntExist:                    "package %s does not exist",
	KeyDuplicateAnnotation:            "duplicate annotation",
	KeyDuplicateClass:                 "duplicate class: %s",
	KeyIllegalCombination:             "illegal combination of modifiers: %s and %s",
	KeyImportRequiresCanonical:        "import requires canonical name for %s",
	KeyIntfExpectedHere:               "interface expected here",
	KeyNoIntfExpectedHere:             "no interface expected here",
	KeyModNotAllowedHere:              "modifier %s not allowed here",
	KeyNameClashSameErasure:           "name clash: %s and %s have the same erasure",
	KeyRepeatedInterface:              "repeated interface",
	KeyCantInheritFromFinal:           "cannot inherit from final %s",
	KeyIncompatibleThrown:             "incompatible types: %s cannot be converted to %s",
	KeyPkgClashesWithClass:            "package %s clashes with class of same name",
	KeyClashWithPkg:                   "class %s clashes with package of same name",
	KeyNotAnnotationType:              "%s is not an annotation type",
	KeyAnnotationMissingValue:         "annotation %s is missing a value for the attribute %s",
	KeyCantResolveElement:             "cannot find annotation method %s in %s",
	KeyClassPublicInFile:              "class %s is public, should be declared in a file named %s.java",
	KeyFatalNoJavaLang:                "Unable to find package java.lang in classpath or bootclasspath",
	KeyFatalCantLocateCtor:            "Cannot find constructor for %s",
	KeyUncompilable:                   "Uncompilable source code",
	KeyWarnCoupling:                   "source for %s does not match the compiled class; member %s is missing",
	KeyWarnDeprecatedAnnotation:       "deprecated item is not annotated with @Deprecated",
	KeyNoteEnumValuesDoc:              "Returns an array containing the constants of this enum type, in the order they are declared.",
	KeyNoteEnumValueOfDoc:             "Returns the enum constant of this type with the specified name.",
	KeyTypeFoundReq:                   "unexpected type: found %s, required %s",
	KeyWrongNumberTypeArgs:            "wrong number of type arguments; required %d",
	KeyAttributeNotConstant:           "attribute value must be constant",
	KeyStaticImportOnlyClasses:        "static import only from classes and interfaces",
	KeyDuplicateAnnotationNoContainer: "%s is not a repeatable annotation type",
}

var german = map[string]string{
	KeyAlreadyDefined:      "%s ist bereits in %s definiert",
	KeyCantAccess:          "Kein Zugriff auf %s: %s",
	KeyCantResolve:         "Symbol nicht gefunden: %s",
	KeyCyclicInheritance:   "Zyklische Vererbung mit %s",
	KeyDoesntExist:         "Package %s ist nicht vorhanden",
	KeyDuplicateAnnotation: "Doppelte Annotation",
	KeyDuplicateClass:      "Doppelte Klasse: %s",
	KeyUncompilable:        "Nicht kompilierbarer Quellcode",
}

var translations = map[language.Tag]map[string]string{
	language.English: english,
	language.German:  german,
}

// Messages renders message keys in one language.
type Messages struct {
	printer  *message.Printer
	fallback *message.Printer
	tag      language.Tag
}

var messageCatalog = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range translations {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(fmt.Errorf("message %s: %w", key, err))
			}
		}
	}
	return b
}

// NewMessages returns a renderer for locale, falling back to English for
// unknown locales and untranslated keys.
func NewMessages(locale string) *Messages {
	tag := language.English
	if locale != "" {
		if parsed, err := language.Parse(locale); err == nil {
			supported := messageCatalog.Languages()
			_, idx, conf := language.NewMatcher(supported).Match(parsed)
			if conf != language.No {
				tag = supported[idx]
			}
		}
	}
	return &Messages{
		printer:  message.NewPrinter(tag, message.Catalog(messageCatalog)),
		fallback: message.NewPrinter(language.English, message.Catalog(messageCatalog)),
		tag:      tag,
	}
}

// Language returns the language messages are rendered in.
func (m *Messages) Language() language.Tag { return m.tag }

// Render formats key with args. Unknown keys render as the key followed by
// the arguments.
func (m *Messages) Render(key string, args ...any) string {
	if _, ok := english[key]; !ok {
		if len(args) == 0 {
			return key
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = fmt.Sprint(a)
		}
		return key + ": " + strings.Join(parts, ", ")
	}
	if _, ok := translations[m.tag][key]; !ok {
		return m.fallback.Sprintf(key, args...)
	}
	return m.printer.Sprintf(key, args...)
}
