package dpkg

import (
	"reflect"
	"testing"

	debversion "github.com/knqyf263/go-deb-version"
)

func TestCompare(t *testing.T) {
	type args struct {
		a string
		b string
	}

	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "equal",
			args: args{a: "1.2.3", b: "1.2.3"},
			want: 0,
		},
		{
			name: "emptyEqual",
			args: args{a: "", b: ""},
			want: 0,
		},
		{
			name: "tildeBeforeRelease",
			args: args{a: "1.0", b: "1.0~rc1"},
			want: 1,
		},
		{
			name: "tildeBeforeTildeTilde",
			args: args{a: "1.0~~", b: "1.0~"},
			want: -1,
		},
		{
			name: "epochDominates",
			args: args{a: "1:1.0", b: "2.0"},
			want: 1,
		},
		{
			name: "zeroEpochImplicit",
			args: args{a: "0:1.0", b: "1.0"},
			want: 0,
		},
		{
			name: "extraNumericRun",
			args: args{a: "1.0.0", b: "1.0"},
			want: 1,
		},
		{
			name: "leadingZeros",
			args: args{a: "1.01", b: "1.1"},
			want: 0,
		},
		{
			name: "bigNumbers",
			args: args{a: "1.999999999999999999999999", b: "1.1000000000000000000000000"},
			want: -1,
		},
		{
			name: "revisionBreaksTie",
			args: args{a: "1.0-2", b: "1.0-10"},
			want: -1,
		},
		{
			name: "missingRevisionIsEmpty",
			args: args{a: "1.0", b: "1.0-1"},
			want: -1,
		},
		{
			name: "opensslUsn",
			args: args{a: "1.1.1f-1ubuntu2.16", b: "1.1.1f-1ubuntu2.19"},
			want: -1,
		},
		{
			name: "securityRespin",
			args: args{a: "2.4.41-4ubuntu3.14", b: "2.4.41-4ubuntu3.9"},
			want: 1,
		},
		{
			name: "malformedIsOpaque",
			args: args{a: "not-a-version", b: "not-a-version"},
			want: 0,
		},
		{
			name: "nonNumericEpochIsUpstream",
			args: args{a: "a:1.0", b: "a:1.0"},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.args.a, tt.args.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %v, want %v", tt.args.a, tt.args.b, got, tt.want)
			}
			if got := Compare(tt.args.b, tt.args.a); got != -tt.want {
				t.Errorf("Compare(%q, %q) = %v, want %v", tt.args.b, tt.args.a, got, -tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		v    string
		want Version
	}{
		{
			name: "full",
			v:    "1:1.2.3-4ubuntu5",
			want: Version{Epoch: "1", Upstream: "1.2.3", Revision: "4ubuntu5"},
		},
		{
			name: "noEpoch",
			v:    "1.2.3-4",
			want: Version{Epoch: "0", Upstream: "1.2.3", Revision: "4"},
		},
		{
			name: "noRevision",
			v:    "1.2.3",
			want: Version{Epoch: "0", Upstream: "1.2.3"},
		},
		{
			name: "hyphenatedUpstream",
			v:    "1.0-beta-3",
			want: Version{Epoch: "0", Upstream: "1.0-beta", Revision: "3"},
		},
		{
			name: "colonInUpstream",
			v:    "2:1:0-1",
			want: Version{Epoch: "2", Upstream: "1:0", Revision: "1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.v); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

// corpus is a ladder of real-world style versions in ascending order.
var corpus = []string{
	"0",
	"0.9",
	"1.0~~",
	"1.0~rc1",
	"1.0~rc1-1",
	"1.0",
	"1.0-1",
	"1.0-1ubuntu1",
	"1.0-2",
	"1.0.1",
	"1.1.1f-1ubuntu2",
	"1.1.1f-1ubuntu2.16",
	"1.1.1g",
	"2.4.41-4ubuntu3.9",
	"2.4.41-4ubuntu3.14",
	"1:0.5",
	"1:1.0",
	"2:0.1",
}

func TestCompareTotalOrder(t *testing.T) {
	for i, a := range corpus {
		if got := Compare(a, a); got != 0 {
			t.Errorf("Compare(%q, %q) = %v, want 0", a, a, got)
		}

		for j, b := range corpus {
			got := Compare(a, b)

			var want int
			switch {
			case i < j:
				want = -1
			case i > j:
				want = 1
			}
			if got != want {
				t.Errorf("Compare(%q, %q) = %v, want %v", a, b, got, want)
			}

			// Antisymmetry.
			if back := Compare(b, a); back != -got {
				t.Errorf("Compare(%q, %q) = %v, Compare reversed = %v", a, b, got, back)
			}

			// Transitivity over every chained triple.
			for k, c := range corpus {
				if i <= j && j <= k {
					if Compare(a, c) > 0 {
						t.Errorf("order not transitive: %q <= %q <= %q", a, b, c)
					}
				}
			}
		}
	}
}

// TestCompareAgainstDpkg cross-checks the comparator against the
// go-deb-version implementation used by other scanners.
func TestCompareAgainstDpkg(t *testing.T) {
	pairs := [][2]string{
		{"1.0", "1.0~rc1"},
		{"1.0~rc1", "1.0~rc2"},
		{"1:1.0", "2.0"},
		{"1.0-1", "1.0-1ubuntu1"},
		{"1.0-2", "1.0-10"},
		{"1.1.1f-1ubuntu2.16", "1.1.1f-1ubuntu2.19"},
		{"2.4.41-4ubuntu3.9", "2.4.41-4ubuntu3.14"},
		{"5.4.0-100.113", "5.4.0-99.112"},
		{"1:2.3.4-1", "1:2.3.4-1"},
		{"0.9", "1.0"},
	}

	for _, p := range pairs {
		va, err := debversion.NewVersion(p[0])
		if err != nil {
			t.Fatalf("oracle rejected %q: %v", p[0], err)
		}
		vb, err := debversion.NewVersion(p[1])
		if err != nil {
			t.Fatalf("oracle rejected %q: %v", p[1], err)
		}

		want := sign(va.Compare(vb))
		if got := Compare(p[0], p[1]); got != want {
			t.Errorf("Compare(%q, %q) = %v, oracle says %v", p[0], p[1], got, want)
		}
	}
}
