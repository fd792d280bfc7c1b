package subscription

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mergebox/backend/domain"
)

// 常量定义
const (
	// subscriptionUserAgent 订阅服务专用 User-Agent
	// 使用 Clash 风格的 UA 以确保被大多数订阅服务接受
	subscriptionUserAgent = "ClashForAndroid/2.5.12"

	maxDownloadSize = 50 << 20 // 50 MiB
	downloadTimeout = 2 * time.Minute
)

// Fetcher 按 hop 拉取并解析订阅内容为节点记录
type Fetcher struct {
	client *http.Client
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: downloadTimeout},
	}
}

// Fetch downloads one hop's subscription and decodes it into node
// records. Supported payloads: a sing-box document (its `outbounds`
// array is used), a bare JSON array of outbounds, and either of those
// wrapped in base64. Group and terminal typed entries are ignored —
// only protocol leaves qualify as fetched nodes.
func (f *Fetcher) Fetch(ctx context.Context, src domain.HopSource) ([]domain.NodeRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", subscriptionUserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("download failed: " + resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize))
	if err != nil {
		return nil, err
	}

	outbounds, err := decodeOutbounds(data)
	if err != nil {
		return nil, fmt.Errorf("hop %s: %w", src.Name, err)
	}

	records := make([]domain.NodeRecord, 0, len(outbounds))
	for _, ob := range outbounds {
		if ob == nil || ob.Tag == "" {
			continue
		}
		if ob.IsGroup() || ob.IsTerminal() {
			continue
		}
		records = append(records, domain.NodeRecord{Outbound: ob, Hop: src.Name})
	}
	return records, nil
}

func decodeOutbounds(data []byte) ([]*domain.Outbound, error) {
	payload := strings.TrimSpace(string(data))
	if payload == "" {
		return nil, nil
	}

	// base64 包装的订阅先解包再解析
	if !strings.HasPrefix(payload, "{") && !strings.HasPrefix(payload, "[") {
		decoded, ok := decodeBase64(payload)
		if !ok {
			return nil, errors.New("payload is neither JSON nor base64-wrapped JSON")
		}
		payload = strings.TrimSpace(decoded)
	}

	if strings.HasPrefix(payload, "[") {
		var outbounds []*domain.Outbound
		if err := json.Unmarshal([]byte(payload), &outbounds); err != nil {
			return nil, err
		}
		return outbounds, nil
	}

	var doc domain.RoutingDocument
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, err
	}
	return doc.Outbounds, nil
}

func decodeBase64(payload string) (string, bool) {
	payload = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' {
			return -1
		}
		return r
	}, payload)

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if decoded, err := enc.DecodeString(payload); err == nil {
			return string(decoded), true
		}
	}
	return "", false
}
