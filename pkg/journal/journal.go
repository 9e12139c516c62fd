package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const (
	// rw-r--r--
	fileMode fs.FileMode = 0644
	// rwxr-xr-x
	dirMode fs.FileMode = 0755
)

// ErrClosed 紀錄檔已關閉
var ErrClosed = errors.New("journal closed")

// Journal 只新增的稽核紀錄，每筆為一行 JSON
type Journal struct {
	mu     sync.Mutex
	file   *os.File
	sync   bool
	closed bool
}

// Option Journal 選項
type Option func(*Journal)

// WithSync 每次寫入後 fsync
func WithSync(enabled bool) Option {
	return func(j *Journal) {
		j.sync = enabled
	}
}

// Open 開啟或建立紀錄檔，上層目錄不存在時一併建立
// O_APPEND 每次寫入時自動跳到檔案末尾
func Open(path string, opts ...Option) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, fileMode)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", path, err)
	}
	j := &Journal{file: file}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Write 寫入一筆資料
func (j *Journal) Write(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	line = append(line, '\n')

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	if _, err := j.file.Write(line); err != nil {
		return fmt.Errorf("write journal entry: %w", err)
	}
	if j.sync {
		return j.file.Sync()
	}
	return nil
}

// Close 關閉檔案，重複呼叫不會出錯
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.file.Close()
}

// Replay 依序讀取紀錄檔中的每一筆資料
// callback 逐筆接收，避免一次將所有資料載入記憶體
func Replay(path string, callback func(raw json.RawMessage) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open journal %s: %w", path, err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode journal entry: %w", err)
		}
		if err := callback(raw); err != nil {
			return err
		}
	}
}
