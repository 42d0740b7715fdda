package tasks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tailscale/hujson"

	"focusflow/internal/storage"
)

// DefaultKey is the blob key the collection is stored under.
const DefaultKey = "focusflow.todos.v1"

// Adapter reads and writes the whole collection as one JSON array under Key.
// Loading never fails: unreadable data yields an empty collection and bad
// records are coerced or dropped, with a log line either way.
type Adapter struct {
	Blob   storage.Blob
	Key    string
	Logger *slog.Logger
	Opts   Options
}

func NewAdapter(blob storage.Blob, key string, logger *slog.Logger, opts Options) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{Blob: blob, Key: key, Logger: logger, Opts: opts.withDefaults()}
}

func (a *Adapter) Load() []Task {
	raw, ok, err := a.Blob.Get(a.Key)
	if err != nil {
		a.Logger.Error("failed to read stored tasks", "key", a.Key, "error", err)
		return nil
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return nil
	}
	std, err := hujson.Standardize([]byte(raw))
	if err != nil {
		a.Logger.Error("failed to parse stored tasks", "key", a.Key, "error", err)
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(std, &elems); err != nil {
		a.Logger.Error("stored tasks are not a list", "key", a.Key, "error", err)
		return nil
	}

	out := make([]Task, 0, len(elems))
	seen := make(map[string]struct{}, len(elems))
	for i, elem := range elems {
		t, err := a.coerce(elem)
		if err != nil {
			a.Logger.Warn("dropping stored task", "key", a.Key, "index", i, "error", err)
			continue
		}
		if _, dup := seen[t.ID]; dup {
			a.Logger.Warn("stored task id repeats, assigning a new one", "key", a.Key, "index", i, "id", t.ID)
			t.ID = a.Opts.NewID()
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Save overwrites the stored collection. A failed write is logged and
// returned; the caller's in-memory tasks stay authoritative.
func (a *Adapter) Save(tasks []Task) error {
	if tasks == nil {
		tasks = []Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		a.Logger.Error("failed to encode tasks", "error", err)
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := a.Blob.Set(a.Key, string(data)); err != nil {
		a.Logger.Error("failed to save tasks", "key", a.Key, "count", len(tasks), "error", err)
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

func (a *Adapter) coerce(elem json.RawMessage) (Task, error) {
	dec := json.NewDecoder(bytes.NewReader(elem))
	dec.UseNumber()
	var rec map[string]any
	if err := dec.Decode(&rec); err != nil || rec == nil {
		return Task{}, errors.New("record is not an object")
	}

	t := Task{
		ID:        textOf(rec["id"]),
		Title:     textOf(rec["title"]),
		Completed: truthy(rec["completed"]),
		CreatedAt: millisOf(rec["createdAt"]),
		Priority:  Priority(textOf(rec["priority"])),
	}
	// A task never holds a blank title, so such records are dropped rather
	// than loaded with "".
	if strings.TrimSpace(t.Title) == "" {
		return Task{}, errors.New("record has no title")
	}
	if t.ID == "" {
		t.ID = a.Opts.NewID()
	}
	if t.CreatedAt <= 0 {
		t.CreatedAt = a.Opts.Now().UnixMilli()
	}
	if !t.Priority.Valid() {
		t.Priority = PriorityMedium
	}
	if s, ok := rec["due"].(string); ok {
		// An unreadable due date is treated as no due date.
		t.Due, _ = ParseDate(s)
	}
	return t, nil
}

// textOf renders scalars as text. Objects, arrays and null give "".
func textOf(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	default:
		return true
	}
}

func millisOf(v any) int64 {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	default:
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}
