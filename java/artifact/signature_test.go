package artifact

import (
	"testing"
)

func TestParseFieldDescriptor(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"I", "int"},
		{"[[J", "long[][]"},
		{"Ljava/lang/String;", "java.lang.String"},
		{"Ljava/util/List<Ljava/lang/String;>;", "java.util.List<java.lang.String>"},
		{"Ljava/util/Map<*+Ljava/lang/Number;>;", "java.util.Map<?,? extends java.lang.Number>"},
		{"Ljava/util/Map$Entry;", "java.util.Map.Entry"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := ParseFieldDescriptor(tt.desc)
			if err != nil {
				t.Fatalf("ParseFieldDescriptor(%q) error = %v", tt.desc, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseFieldDescriptor(%q) = %q, want %q", tt.desc, got, tt.want)
			}
		})
	}
}

func TestParseMethodDescriptor(t *testing.T) {
	tests := []struct {
		desc string
		want string
	}{
		{"()V", "()void"},
		{"(ILjava/lang/String;)Z", "(int,java.lang.String)boolean"},
		{"<T:Ljava/lang/Object;>(TT;)TT;", "<T>(T)T"},
		{"(Ljava/lang/Object;)V^Ljava/io/IOException;", "(java.lang.Object)void"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			got, err := ParseMethodDescriptor(tt.desc)
			if err != nil {
				t.Fatalf("ParseMethodDescriptor(%q) error = %v", tt.desc, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseMethodDescriptor(%q) = %q, want %q", tt.desc, got, tt.want)
			}
		})
	}
}

func TestParseDescriptorErrors(t *testing.T) {
	for _, desc := range []string{"", "Q", "Ljava/lang/String", "(I", "II"} {
		if _, err := ParseFieldDescriptor(desc); err == nil {
			t.Errorf("ParseFieldDescriptor(%q) succeeded, want error", desc)
		}
	}
}

func TestTypeVariableBoundsMayReferToLaterParameters(t *testing.T) {
	mt, err := ParseMethodDescriptor("<A:Ljava/util/List<TB;>;B:Ljava/lang/Object;>(TA;)V")
	if err != nil {
		t.Fatal(err)
	}
	if got := mt.TypeParams[0].Bound.String(); got != "java.util.List<B>" {
		t.Errorf("bound of A = %q, want java.util.List<B>", got)
	}
}
