// Package dpkg orders Debian package version strings.
//
// A version is [epoch:]upstream[-revision]. Ordering follows the package
// manager convention: epochs compare numerically, upstream and revision
// compare by alternating runs of digits and non-digits, and `~` sorts
// before anything else including the end of the string, so pre-release
// suffixes like 1.0~rc1 come before 1.0.
package dpkg

import "strings"

// Version is a package version split into its three components.
type Version struct {
	Epoch    string
	Upstream string
	Revision string
}

// Parse splits v into epoch, upstream version and revision. It never fails:
// a missing epoch defaults to "0", a missing revision to "", and a string
// that does not fit the syntax at all is carried whole in Upstream so that
// odd version strings still take part in the total order.
func Parse(v string) Version {
	ver := Version{Epoch: "0", Upstream: v}

	if i := strings.Index(ver.Upstream, ":"); i > 0 && allDigits(ver.Upstream[:i]) {
		ver.Epoch = ver.Upstream[:i]
		ver.Upstream = ver.Upstream[i+1:]
	}

	if i := strings.LastIndex(ver.Upstream, "-"); i > -1 {
		ver.Revision = ver.Upstream[i+1:]
		ver.Upstream = ver.Upstream[:i]
	}

	return ver
}

// Compare returns -1, 0 or 1 as a sorts before, equal to or after b.
// It is total: any pair of strings has a defined, transitive ordering.
func Compare(a, b string) int {
	return Parse(a).Compare(Parse(b))
}

// LessThan reports whether version a sorts strictly before version b.
func LessThan(a, b string) bool {
	return Compare(a, b) < 0
}

// Compare returns -1, 0 or 1 as v sorts before, equal to or after o.
func (v Version) Compare(o Version) int {
	if r := compareNumeric(v.Epoch, o.Epoch); r != 0 {
		return r
	}
	if r := compareFragment(v.Upstream, o.Upstream); r != 0 {
		return r
	}
	return compareFragment(v.Revision, o.Revision)
}

// String reassembles the version, omitting a zero epoch and empty revision.
func (v Version) String() string {
	s := v.Upstream
	if v.Epoch != "" && v.Epoch != "0" {
		s = v.Epoch + ":" + s
	}
	if v.Revision != "" {
		s = s + "-" + v.Revision
	}
	return s
}

// compareFragment orders one upstream-or-revision component by alternating
// runs of non-digits and digits, dpkg style.
func compareFragment(a, b string) int {
	i, j := 0, 0

	for i < len(a) || j < len(b) {
		// Non-digit run, character by character. Both cursors advance
		// together; a run that ends early compares as end-of-string.
		for (i < len(a) && !isDigit(a[i])) || (j < len(b) && !isDigit(b[j])) {
			ac := charOrder(byteAt(a, i))
			bc := charOrder(byteAt(b, j))
			if ac != bc {
				return sign(ac - bc)
			}
			i++
			j++
		}

		// Digit run, as an unbounded integer with leading zeros ignored.
		for i < len(a) && a[i] == '0' {
			i++
		}
		for j < len(b) && b[j] == '0' {
			j++
		}

		first := 0
		for i < len(a) && j < len(b) && isDigit(a[i]) && isDigit(b[j]) {
			if first == 0 {
				first = int(a[i]) - int(b[j])
			}
			i++
			j++
		}

		// The longer digit run is the larger number.
		if i < len(a) && isDigit(a[i]) {
			return 1
		}
		if j < len(b) && isDigit(b[j]) {
			return -1
		}
		if first != 0 {
			return sign(first)
		}
	}

	return 0
}

// compareNumeric orders two digit strings as integers of any length.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")

	if len(a) != len(b) {
		return sign(len(a) - len(b))
	}
	return strings.Compare(a, b)
}

// charOrder ranks a byte inside a non-digit run. End of string is 0 and
// `~` sorts below it; everything else keeps its code point, so digits
// bordering a shorter run rank as end-of-string does.
func charOrder(c byte) int {
	switch {
	case c == '~':
		return -1
	case isDigit(c):
		return 0
	default:
		return int(c)
	}
}

func byteAt(s string, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return 0
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return s != ""
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
