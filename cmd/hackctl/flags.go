package main

import "strings"

// stringList is a repeatable flag.Value accumulating comma- or
// whitespace-separated tokens across possibly multiple flag occurrences,
// across repeated flag occurrences.
type stringList struct {
	values *[]string
}

func (s stringList) String() string {
	if s.values == nil {
		return ""
	}
	return strings.Join(*s.values, ",")
}

func (s stringList) Set(v string) error {
	*s.values = append(*s.values, splitListArg(v)...)
	return nil
}

// familyList is a repeatable flag.Value where each occurrence is one
// family (e.g. one --mutually-exclusive-features group), itself a
// comma/whitespace-separated list.
type familyList struct {
	values *[][]string
}

func (f familyList) String() string {
	if f.values == nil {
		return ""
	}
	var parts []string
	for _, fam := range *f.values {
		parts = append(parts, strings.Join(fam, ","))
	}
	return strings.Join(parts, ";")
}

func (f familyList) Set(v string) error {
	*f.values = append(*f.values, splitListArg(v))
	return nil
}

func splitListArg(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	var out []string
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}
