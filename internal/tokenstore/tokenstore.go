// Package tokenstore はベアラートークンの永続化ストレージを提供する。
// ブラウザのlocalStorageに相当する、単一キーの耐久ストレージ。
package tokenstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store はトークン永続化ストレージのインターフェースを定義する。
// 保持するのは単一の不透明なトークン文字列のみ。
// 書き込みはlast-write-winsの冪等な上書きとして扱う。
type Store interface {
	// Load は保存されたトークンを読み込む。
	// トークンが存在しない場合は空文字列を返す（エラーではない）。
	Load() (string, error)
	// Save はトークンを永続化する。既存の値は上書きされる。
	Save(token string) error
	// Clear は保存されたトークンを削除する。
	// トークンが存在しない場合も成功として扱う（冪等）。
	Clear() error
}

// FileStore は単一ファイルにトークンを保存するStoreの実装。
type FileStore struct {
	path string
}

// NewFileStore はFileStoreを生成する。
// pathはトークンを保存するファイルのパス。
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load は保存されたトークンを読み込む。
// ファイルが存在しない場合は空文字列を返す。
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("トークンファイルの読み込みに失敗しました: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save はトークンをファイルに書き込む。
// 親ディレクトリが存在しない場合は作成する。
// トークンは資格情報のためパーミッションは0600とする。
func (s *FileStore) Save(token string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("トークンディレクトリの作成に失敗しました: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("トークンファイルの書き込みに失敗しました: %w", err)
	}
	return nil
}

// Clear はトークンファイルを削除する。ファイルが存在しない場合も成功とする。
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("トークンファイルの削除に失敗しました: %w", err)
	}
	return nil
}
