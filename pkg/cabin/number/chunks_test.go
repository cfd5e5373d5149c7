package number

import "testing"

func TestSplitNumbers(t *testing.T) {
	type want struct {
		value    string
		number   float64
		isNumber bool
	}
	tests := []struct {
		input string
		want  []want
	}{
		{"", nil},
		{"hello", []want{{"hello", 0, false}}},
		{"42", []want{{"42", 42, true}}},
		{"-3.5e2", []want{{"-3.5e2", -350, true}}},
		{".5", []want{{".5", 0.5, true}}},
		{"set it to 21.5 degrees", []want{
			{"set it to ", 0, false},
			{"21.5", 21.5, true},
			{" degrees", 0, false},
		}},
		{"twenty one percent", []want{
			{"twenty one", 21, true},
			{" percent", 0, false},
		}},
		{"from 5 to ten", []want{
			{"from ", 0, false},
			{"5", 5, true},
			{" to ", 0, false},
			{"ten", 10, true},
		}},
		{"1 2", []want{
			{"1", 1, true},
			{" ", 0, false},
			{"2", 2, true},
		}},
		{"someone", []want{
			{"some", 0, false},
			{"one", 1, true},
		}},
		{"5one", []want{
			{"5", 5, true},
			{"one", 1, true},
		}},
		{"tone", []want{
			{"t", 0, false},
			{"one", 1, true},
		}},
		{"größe 3", []want{
			{"größe ", 0, false},
			{"3", 3, true},
		}},
		{"🙂 two", []want{
			{"🙂 ", 0, false},
			{"two", 2, true},
		}},
	}

	for _, tt := range tests {
		got := SplitNumbers(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("SplitNumbers(%q) returned %d chunks, want %d: %+v", tt.input, len(got), len(tt.want), got)
			continue
		}
		for i, w := range tt.want {
			c := got[i]
			if c.Value != w.value || c.IsNumber != w.isNumber || (w.isNumber && c.Number != w.number) {
				t.Errorf("SplitNumbers(%q)[%d] = %+v, want %+v", tt.input, i, c, w)
			}
		}
	}
}

func TestSplitNumbersSingleLiteral(t *testing.T) {
	literals := map[string]float64{
		"0":       0,
		"007":     7,
		"+12":     12,
		"1e3":     1000,
		"2.25E-2": 0.0225,
		"100":     100,
	}
	for lit, want := range literals {
		got := SplitNumbers(lit)
		if len(got) != 1 {
			t.Fatalf("SplitNumbers(%q) returned %d chunks, want 1", lit, len(got))
		}
		if !got[0].IsNumber || got[0].Number != want || got[0].Value != lit {
			t.Errorf("SplitNumbers(%q) = %+v, want number %v", lit, got[0], want)
		}
	}
}

func TestFirstNumber(t *testing.T) {
	c, ok := FirstNumber("about seventy five or 80")
	if !ok {
		t.Fatal("FirstNumber should find a number")
	}
	if c.Number != 75 {
		t.Errorf("FirstNumber = %v, want 75", c.Number)
	}

	if _, ok := FirstNumber("no numbers here"); ok {
		t.Error("FirstNumber should report no number")
	}
}
