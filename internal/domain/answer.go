package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Answer is a submitted answer payload. Each question type has exactly one
// concrete answer type.
type Answer interface {
	Kind() QuestionType
}

type ChoiceAnswer struct{ Option string }
type MultiChoiceAnswer struct{ Options []string }
type TrueFalseAnswer struct{ Value bool }
type MultiTrueFalseAnswer struct{ Values []bool }
type BlanksAnswer struct{ Blanks []string }
type MatchingAnswer struct{ Pairs []MatchPair }
type TextAnswer struct{ Text string }

func (ChoiceAnswer) Kind() QuestionType         { return TypeSingleChoice }
func (MultiChoiceAnswer) Kind() QuestionType    { return TypeMultiChoice }
func (TrueFalseAnswer) Kind() QuestionType      { return TypeTrueFalse }
func (MultiTrueFalseAnswer) Kind() QuestionType { return TypeMultiTrueFalse }
func (BlanksAnswer) Kind() QuestionType         { return TypeFillBlanks }
func (MatchingAnswer) Kind() QuestionType       { return TypeMatching }
func (TextAnswer) Kind() QuestionType           { return TypeDescriptive }

// DecodeAnswer converts a wire payload into the answer type of qt.
// An absent or null payload yields (nil, nil).
func DecodeAnswer(qt QuestionType, raw json.RawMessage) (Answer, error) {
	if isNull(raw) {
		return nil, nil
	}
	switch qt {
	case TypeSingleChoice:
		var s string
		if err := strictUnmarshal(raw, &s); err != nil {
			return nil, malformed(qt, "a string")
		}
		return ChoiceAnswer{Option: s}, nil
	case TypeMultiChoice:
		ss, ok := decodeStrings(raw)
		if !ok {
			return nil, malformed(qt, "an array of strings")
		}
		return MultiChoiceAnswer{Options: ss}, nil
	case TypeTrueFalse:
		v, ok := decodeBool(raw)
		if !ok {
			return nil, malformed(qt, `a boolean or "true"/"false"`)
		}
		return TrueFalseAnswer{Value: v}, nil
	case TypeMultiTrueFalse:
		var ptrs []*bool
		if err := strictUnmarshal(raw, &ptrs); err != nil {
			return nil, malformed(qt, "an array of booleans")
		}
		bs := make([]bool, len(ptrs))
		for i, p := range ptrs {
			if p == nil {
				return nil, malformed(qt, "an array of booleans")
			}
			bs[i] = *p
		}
		return MultiTrueFalseAnswer{Values: bs}, nil
	case TypeFillBlanks:
		ss, ok := decodeStrings(raw)
		if !ok {
			return nil, malformed(qt, "an array of strings")
		}
		return BlanksAnswer{Blanks: ss}, nil
	case TypeMatching:
		pairs, ok := decodePairs(raw)
		if !ok {
			return nil, malformed(qt, "a list of {left,right} pairs or an object")
		}
		return MatchingAnswer{Pairs: pairs}, nil
	case TypeDescriptive:
		var s string
		if err := strictUnmarshal(raw, &s); err != nil {
			return nil, malformed(qt, "a string")
		}
		return TextAnswer{Text: s}, nil
	}
	return nil, fmt.Errorf("%w: unknown question type %q", ErrMalformedAnswer, qt)
}

// IsEmptyAnswer reports whether a raw payload carries no answer content.
func IsEmptyAnswer(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", `""`, "[]", "{}":
		return true
	}
	var s string
	if json.Unmarshal(trimmed, &s) == nil {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func malformed(qt QuestionType, want string) error {
	return fmt.Errorf("%w: %s expects %s", ErrMalformedAnswer, qt, want)
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null"
}

func strictUnmarshal(raw json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func decodeBool(raw json.RawMessage) (bool, bool) {
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return b, true
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// decodeStrings rejects null elements instead of reading them as "".
func decodeStrings(raw json.RawMessage) ([]string, bool) {
	var ptrs []*string
	if strictUnmarshal(raw, &ptrs) != nil {
		return nil, false
	}
	out := make([]string, len(ptrs))
	for i, p := range ptrs {
		if p == nil {
			return nil, false
		}
		out[i] = *p
	}
	return out, true
}

// decodePairs accepts a list of {left,right} objects or a left->right map.
// A lone pair object is not a map of lefts and is rejected.
func decodePairs(raw json.RawMessage) ([]MatchPair, bool) {
	var pairs []MatchPair
	if strictUnmarshal(raw, &pairs) == nil {
		return pairs, true
	}
	var keyed map[string]string
	if json.Unmarshal(raw, &keyed) != nil {
		return nil, false
	}
	if _, ok := keyed["left"]; ok {
		return nil, false
	}
	if _, ok := keyed["right"]; ok {
		return nil, false
	}
	pairs = make([]MatchPair, 0, len(keyed))
	for left, right := range keyed {
		pairs = append(pairs, MatchPair{Left: left, Right: right})
	}
	return pairs, true
}
