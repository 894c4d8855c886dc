package pipeline

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Install root layout:
//
//	root/
//	  .nativedeps/receipts.json   # maps dependency name → Receipt
//	  include/
//	  lib/
const (
	receiptDir  = ".nativedeps"
	receiptFile = "receipts.json"
)

// Receipt records one successful install.
type Receipt struct {
	Version     string    `json:"version"`
	Platform    string    `json:"platform"`
	Archive     string    `json:"archive,omitempty"` // empty in direct mode
	InstallTime time.Time `json:"install_time"`
}

// Receipts maps dependency names to their latest install.
type Receipts struct {
	Installed map[string]*Receipt `json:"installed"`
}

// Get returns the receipt of name.
func (r *Receipts) Get(name string) (*Receipt, bool) {
	e, ok := r.Installed[name]
	return e, ok
}

func (r *Receipts) set(name string, e *Receipt) {
	if r.Installed == nil {
		r.Installed = make(map[string]*Receipt)
	}
	r.Installed[name] = e
}

func receiptPath(root string) string {
	return filepath.Join(root, receiptDir, receiptFile)
}

// LoadReceipts reads the receipts of root. A root nothing was installed
// into yields empty receipts.
func LoadReceipts(root string) (*Receipts, error) {
	data, err := os.ReadFile(receiptPath(root))
	if errors.Is(err, os.ErrNotExist) {
		return &Receipts{}, nil
	}
	if err != nil {
		return nil, err
	}
	var r Receipts
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func saveReceipts(root string, r *Receipts) error {
	path := receiptPath(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// record adds a receipt for name to the receipts of root.
func record(root, name string, e *Receipt) error {
	r, err := LoadReceipts(root)
	if err != nil {
		return err
	}
	r.set(name, e)
	return saveReceipts(root, r)
}
