package symbols

import "strings"

// Flags is the modifier and bookkeeping bit set carried by symbols and
// modifier trees.
type Flags uint64

const (
	FlagPublic Flags = 1 << iota
	FlagPrivate
	FlagProtected
	FlagStatic
	FlagFinal
	FlagSynchronized
	FlagVolatile
	FlagTransient
	FlagNative
	FlagInterface
	FlagAbstract
	FlagStrictfp
	FlagSynthetic
	FlagAnnotation
	FlagEnum
	FlagDeprecated
	FlagHasInit
	FlagVarargs
	FlagDefault
	FlagParameter
	// FlagFromClass marks symbols that were read from an external artifact
	// and have not been reconciled with source yet.
	FlagFromClass
	// FlagAptCleaned marks classes whose source trees were stripped between
	// annotation processing rounds.
	FlagAptCleaned
	FlagUnattributed
	FlagGeneratedConstr
	FlagAnonConstr
	FlagAuxiliary
	FlagAcyclic
	// FlagOuterInstance marks the leading constructor parameter that carries
	// the enclosing instance of an anonymous class.
	FlagOuterInstance
	FlagCompound
)

const (
	AccessFlags        = FlagPublic | FlagProtected | FlagPrivate
	LocalClassFlags    = FlagFinal | FlagAbstract | FlagStrictfp | FlagEnum | FlagSynthetic
	MemberClassFlags   = LocalClassFlags | FlagInterface | AccessFlags | FlagStatic
	ClassFlags         = LocalClassFlags | FlagInterface | FlagPublic | FlagAnnotation
	InterfaceVarFlags  = FlagFinal | FlagStatic | FlagPublic
	VarFlags           = AccessFlags | FlagFinal | FlagStatic | FlagVolatile | FlagTransient | FlagEnum
	ConstructorFlags   = AccessFlags
	InterfaceMethFlags = FlagAbstract | FlagPublic | FlagStatic | FlagDefault | FlagPrivate
	MethodFlags        = AccessFlags | FlagAbstract | FlagStatic | FlagNative | FlagSynchronized | FlagFinal | FlagStrictfp
	ModifierFlags      = AccessFlags | FlagStatic | FlagFinal | FlagSynchronized | FlagVolatile |
		FlagTransient | FlagNative | FlagInterface | FlagAbstract | FlagStrictfp | FlagDefault
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagPublic, "public"},
	{FlagPrivate, "private"},
	{FlagProtected, "protected"},
	{FlagAbstract, "abstract"},
	{FlagStatic, "static"},
	{FlagFinal, "final"},
	{FlagTransient, "transient"},
	{FlagVolatile, "volatile"},
	{FlagSynchronized, "synchronized"},
	{FlagNative, "native"},
	{FlagStrictfp, "strictfp"},
	{FlagDefault, "default"},
	{FlagInterface, "interface"},
	{FlagAnnotation, "annotation"},
	{FlagEnum, "enum"},
	{FlagSynthetic, "synthetic"},
	{FlagDeprecated, "deprecated"},
	{FlagHasInit, "hasinit"},
	{FlagVarargs, "varargs"},
	{FlagParameter, "parameter"},
	{FlagFromClass, "fromclass"},
	{FlagAptCleaned, "aptcleaned"},
	{FlagUnattributed, "unattributed"},
	{FlagGeneratedConstr, "generatedconstr"},
	{FlagAnonConstr, "anonconstr"},
	{FlagAuxiliary, "auxiliary"},
	{FlagAcyclic, "acyclic"},
	{FlagOuterInstance, "outerinstance"},
	{FlagCompound, "compound"},
}

// Has reports whether all bits of mask are set.
func (f Flags) Has(mask Flags) bool { return f&mask == mask }

// Any reports whether at least one bit of mask is set.
func (f Flags) Any(mask Flags) bool { return f&mask != 0 }

// Names returns the flag names in source modifier order.
func (f Flags) Names() []string {
	var names []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	return names
}

func (f Flags) String() string {
	return strings.Join(f.Names(), " ")
}

// ParseFlag returns the flag for a modifier or bookkeeping name.
func ParseFlag(name string) (Flags, bool) {
	for _, fn := range flagNames {
		if fn.name == name {
			return fn.flag, true
		}
	}
	return 0, false
}

// ParseFlags combines a list of flag names, ignoring unknown ones.
func ParseFlags(names []string) Flags {
	var f Flags
	for _, n := range names {
		if flag, ok := ParseFlag(n); ok {
			f |= flag
		}
	}
	return f
}
