package domain

import "encoding/json"

// Todo is an upstream to-do record. Raw keeps the object exactly as received.
type Todo struct {
	ID        int    `json:"id"`
	Text      string `json:"todo"`
	Completed bool   `json:"completed"`
	UserID    int    `json:"userId"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and retains the original bytes.
func (t *Todo) UnmarshalJSON(data []byte) error {
	type plain Todo
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = Todo(p)
	t.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Source returns the raw upstream object, re-encoding the known fields when
// the todo was built in memory.
func (t Todo) Source() json.RawMessage {
	if len(t.Raw) > 0 {
		return t.Raw
	}
	type plain Todo
	data, err := json.Marshal(plain(t))
	if err != nil {
		return nil
	}
	return data
}
