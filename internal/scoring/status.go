package scoring

import (
	"encoding/json"
	"fmt"
)

type statusCode uint8

const (
	codeNotAttempted statusCode = iota
	codeCorrect
	codeWrong
)

// Status is the result of a single question. The zero value is NotAttempted
// and the package only ever constructs the three values below.
type Status struct {
	code statusCode
}

var (
	NotAttempted = Status{codeNotAttempted}
	Correct      = Status{codeCorrect}
	Wrong        = Status{codeWrong}
)

// Wire names used in JSON and the database.
const (
	StatusCorrect      = "correct"
	StatusWrong        = "wrong"
	StatusNotAttempted = "not_attempted"
)

// ParseStatus converts a wire name into a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case StatusCorrect:
		return Correct, nil
	case StatusWrong:
		return Wrong, nil
	case StatusNotAttempted:
		return NotAttempted, nil
	}
	return Status{}, fmt.Errorf("unknown question status %q", s)
}

func (s Status) String() string {
	switch s.code {
	case codeCorrect:
		return StatusCorrect
	case codeWrong:
		return StatusWrong
	default:
		return StatusNotAttempted
	}
}

// Points applies the fixed NEET rule: +4 correct, -1 wrong, 0 otherwise.
func (s Status) Points() int {
	switch s.code {
	case codeCorrect:
		return 4
	case codeWrong:
		return -1
	default:
		return 0
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("question status must be a string: %w", err)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
