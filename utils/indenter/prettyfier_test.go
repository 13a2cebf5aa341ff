package indenter

import "testing"

func TestIndenter(t *testing.T) {
	tests := []struct {
		strs     []string
		expected string
	}{
		{nil, "{\n}"},
		{[]string{"a"}, "{a}"},
		{[]string{"a", "b"}, "{\n  a,\n  b\n}"},
		{[]string{"a", "x: {\n  b\n}"}, "{\n  a,\n  x: {\n    b\n  }\n}"},
	}

	for _, test := range tests {
		if res := New().Start("{").NestStringsSep(",", test.strs...).End("}"); res != test.expected {
			t.Errorf("Expected %q, got %q", test.expected, res)
		}
	}
}
