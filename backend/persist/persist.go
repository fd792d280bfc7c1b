package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"mergebox/backend/domain"
)

// DocumentStore 路由文档的磁盘存取。文档归调用方所有；
// 这里只负责 JSON 读写与原子落盘。
type DocumentStore struct {
	path string
}

func NewDocumentStore(path string) *DocumentStore {
	return &DocumentStore{path: path}
}

// Load 读取并解析路由文档。文件不存在视为致命错误：
// 没有既存配置就没有可合并的策略组。
func (s *DocumentStore) Load() (*domain.RoutingDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("routing document is empty: " + s.path)
	}

	var doc domain.RoutingDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse routing document %s: %w", s.path, err)
	}
	return &doc, nil
}

// Save 原子写回文档（临时文件 + rename）。
func (s *DocumentStore) Save(doc *domain.RoutingDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
