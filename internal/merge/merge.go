// Package merge combines signature records collected from several toolchain
// builds into one record per function.
package merge

import (
	"errors"
	"fmt"

	"github.com/skdltmxn/gothic-functions/signature"
)

// ErrConstAmbiguity indicates two records of one build share a merge key,
// typically a const and a non-const overload of the same method.
var ErrConstAmbiguity = errors.New("merge: const func ambiguity")

// AmbiguityError names the first record of a colliding group.
type AmbiguityError struct {
	Original string
	Count    int
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("Const func ambiguity [[%s]]", e.Original)
}

func (e *AmbiguityError) Unwrap() error { return ErrConstAmbiguity }

// CheckAmbiguity fails if two records in sigs have the same Key.
func CheckAmbiguity(sigs []*signature.Signature) error {
	first := make(map[string]*signature.Signature, len(sigs))
	counts := make(map[string]int, len(sigs))
	var order []string

	for _, s := range sigs {
		key := s.Key()
		if _, ok := first[key]; !ok {
			first[key] = s
			order = append(order, key)
		}
		counts[key]++
	}

	for _, key := range order {
		if counts[key] != 1 {
			return &AmbiguityError{Original: first[key].Original, Count: counts[key]}
		}
	}
	return nil
}

// Combine merges two records with the same key. inner wins for every field;
// address slots it leaves empty are taken from outer. Either may be nil, not
// both.
func Combine(outer, inner *signature.Signature) *signature.Signature {
	src := inner
	if src == nil {
		src = outer
	}
	if src == nil {
		panic("merge: Combine called with two nil records")
	}

	out := src.Clone()
	if outer != nil {
		for i, a := range out.Addresses {
			if a == "" {
				out.Addresses[i] = outer.Addresses[i]
			}
		}
	}
	return out
}

// Join is a full outer join of two record sets on Key. Keys appear in
// first-seen order: outer's keys first, then keys only inner has.
func Join(outer, inner []*signature.Signature) []*signature.Signature {
	byKey := make(map[string]*signature.Signature, len(inner))
	for _, s := range inner {
		byKey[s.Key()] = s
	}

	result := make([]*signature.Signature, 0, len(outer)+len(inner))
	seen := make(map[string]bool, len(outer))
	for _, o := range outer {
		key := o.Key()
		seen[key] = true
		result = append(result, Combine(o, byKey[key]))
	}
	for _, i := range inner {
		if !seen[i.Key()] {
			result = append(result, Combine(nil, i))
		}
	}
	return result
}

// Merge checks every set for ambiguity, then folds them left to right with
// Join. Later sets take precedence for all fields but missing addresses.
func Merge(sets ...[]*signature.Signature) ([]*signature.Signature, error) {
	for _, set := range sets {
		if err := CheckAmbiguity(set); err != nil {
			return nil, err
		}
	}
	if len(sets) == 0 {
		return nil, nil
	}

	merged := Join(nil, sets[0])
	for _, set := range sets[1:] {
		merged = Join(merged, set)
	}
	return merged, nil
}
