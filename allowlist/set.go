package allowlist

import "github.com/xraph/dailymood/types"

// Contains reports whether addr appears in set by exact match.
func Contains(set []types.Address, addr types.Address) bool {
	return IndexOf(set, addr) >= 0
}

// IndexOf returns the position of the first occurrence of addr, or -1.
func IndexOf(set []types.Address, addr types.Address) int {
	for i, a := range set {
		if a == addr {
			return i
		}
	}
	return -1
}

// HasWildcard reports whether the zero address is present.
func HasWildcard(set []types.Address) bool {
	return Contains(set, types.ZeroAddress)
}

// Allows is the membership rule: addr is listed, or the zero address is.
func Allows(set []types.Address, addr types.Address) bool {
	if HasWildcard(set) {
		return true
	}
	return Contains(set, addr)
}

// RemoveFirst returns set without the first occurrence of addr. Remaining
// elements keep their order. The second result is false when addr is absent,
// in which case set is returned unchanged.
func RemoveFirst(set []types.Address, addr types.Address) ([]types.Address, bool) {
	i := IndexOf(set, addr)
	if i < 0 {
		return set, false
	}
	out := make([]types.Address, 0, len(set)-1)
	out = append(out, set[:i]...)
	return append(out, set[i+1:]...), true
}
