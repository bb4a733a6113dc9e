package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ChapterStats is the tally for one chapter key.
type ChapterStats struct {
	Correct      int `json:"correct"`
	Wrong        int `json:"wrong"`
	NotAttempted int `json:"notAttempted"`
	Score        int `json:"score"`
}

// Total is the number of questions counted in the stats.
func (c ChapterStats) Total() int {
	return c.Correct + c.Wrong + c.NotAttempted
}

func (c *ChapterStats) add(s Status) {
	c.Score += s.Points()
	switch s {
	case Correct:
		c.Correct++
	case Wrong:
		c.Wrong++
	default:
		c.NotAttempted++
	}
}

// Chapters maps normalized chapter keys to their stats and remembers the order
// in which keys were first inserted.
type Chapters struct {
	keys  []string
	stats map[string]ChapterStats
}

func (c *Chapters) Len() int {
	return len(c.keys)
}

// Keys returns the chapter keys in insertion order.
func (c *Chapters) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

func (c *Chapters) Get(key string) (ChapterStats, bool) {
	st, ok := c.stats[key]
	return st, ok
}

// Each calls fn for every chapter in insertion order.
func (c *Chapters) Each(fn func(key string, stats ChapterStats)) {
	for _, k := range c.keys {
		fn(k, c.stats[k])
	}
}

// Set stores stats under key, appending the key if it is new.
func (c *Chapters) Set(key string, stats ChapterStats) {
	if c.stats == nil {
		c.stats = make(map[string]ChapterStats)
	}
	if _, ok := c.stats[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.stats[key] = stats
}

func (c *Chapters) record(key string, s Status) {
	st := c.stats[key]
	st.add(s)
	c.Set(key, st)
}

// Equal reports whether both mappings hold the same keys with the same stats.
// Insertion order is ignored.
func (c *Chapters) Equal(other *Chapters) bool {
	if c.Len() != other.Len() {
		return false
	}
	for _, k := range c.keys {
		theirs, ok := other.stats[k]
		if !ok || theirs != c.stats[k] {
			return false
		}
	}
	return true
}

// MarshalJSON writes an object whose members follow insertion order.
func (c Chapters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(c.stats[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object and keeps its member order.
func (c *Chapters) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*c = Chapters{}
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("chapters must be a JSON object")
	}

	var out Chapters
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected chapter key %v", tok)
		}
		var st ChapterStats
		if err := dec.Decode(&st); err != nil {
			return fmt.Errorf("chapter %q: %w", key, err)
		}
		out.Set(key, st)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}
