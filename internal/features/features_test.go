package features

import "testing"

func TestExtractDeterministic(t *testing.T) {
	text := "Step 1: add the index.\n- use CONCURRENTLY\nWarning: locks.\n```sql\nCREATE INDEX\n```"

	a := Extract(text)
	b := Extract(text)

	if a != b {
		t.Errorf("Extract is not deterministic: %+v vs %+v", a, b)
	}
}

func TestExtractDetectors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Record
	}{
		{
			name: "empty",
			text: "",
			want: Record{},
		},
		{
			name: "stepwise answer",
			text: "Step 1: do X",
			want: Record{LenWords: 4, StepScore: 1},
		},
		{
			name: "korean step marker",
			text: "1단계: 설치",
			want: Record{LenWords: 2, StepScore: 1},
		},
		{
			name: "code fence",
			text: "```code```",
			want: Record{LenWords: 1, HasCode: true},
		},
		{
			name: "bullets need leading newline",
			text: "- not a bullet at text start",
			want: Record{LenWords: 7},
		},
		{
			name: "dash bullet",
			text: "outline:\n- first\n- second",
			want: Record{LenWords: 5, HasBullets: true},
		},
		{
			name: "unicode bullet",
			text: "points\n• one",
			want: Record{LenWords: 3, HasBullets: true},
		},
		{
			name: "warning case-insensitive",
			text: "WARNING: this locks the table",
			want: Record{LenWords: 5, HasWarning: true},
		},
		{
			name: "korean warning",
			text: "주의: 테이블 잠금",
			want: Record{LenWords: 3, HasWarning: true},
		},
		{
			name: "step marker is case-sensitive",
			text: "step one then step two",
			want: Record{LenWords: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			if got != tt.want {
				t.Errorf("Extract(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

func TestVectorOrder(t *testing.T) {
	r := Record{LenWords: 7, HasCode: true, StepScore: 1, HasBullets: false, HasWarning: true}
	v := r.Vector()

	want := []float64{7, 1, 1, 0, 1}
	if len(v) != len(want) {
		t.Fatalf("Vector length = %d, want %d", len(v), len(want))
	}
	for i := range want {
		if v[i] != want[i] {
			t.Errorf("Vector[%d] = %v, want %v", i, v[i], want[i])
		}
	}
	if len(DiffNames) != len(want) {
		t.Errorf("DiffNames has %d entries, vector has %d", len(DiffNames), len(want))
	}
}

func TestDiffSignConvention(t *testing.T) {
	a := Extract("Step 1: long answer with many extra words here")
	b := Extract("short")

	d := Diff(a, b)
	if d[0] <= 0 {
		t.Errorf("len_words_diff = %v, want positive when A is longer", d[0])
	}
	if d[2] != 1 {
		t.Errorf("step_score_diff = %v, want 1", d[2])
	}

	// antisymmetric
	rd := Diff(b, a)
	for i := range d {
		if d[i] != -rd[i] {
			t.Errorf("Diff not antisymmetric at %d: %v vs %v", i, d[i], rd[i])
		}
	}
}
