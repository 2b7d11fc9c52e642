package smule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client 封装 Smule 录音导入的第三方接口
// 上游契约不稳定，本客户端只做尽力而为的字段探测，失败时调用方应提示用户改用手动上传
type Client struct {
	apiBase    string
	cdnBase    string
	httpClient *http.Client
}

// NewClient 创建新的 Smule 客户端
func NewClient() *Client {
	return &Client{
		apiBase: "https://www.smule.com/api/performances/key",
		cdnBase: "https://c-fa.smule.com",
		httpClient: &http.Client{
			Timeout: time.Second * 15,
		},
	}
}

// SetAPIBase 设置API基础URL，测试用
func (c *Client) SetAPIBase(url string) {
	c.apiBase = url
}

// SetCDNBase 设置CDN基础URL，测试用
func (c *Client) SetCDNBase(url string) {
	c.cdnBase = url
}

// ErrRecordingNotFound 录音不存在
var ErrRecordingNotFound = errors.New("smule recording not found")

// Recording 是导入结果，字段来自上游多个可能的响应形态
type Recording struct {
	Title         string `json:"title"`
	Artist        string `json:"artist"`
	PerformerName string `json:"performerName"`
	PerformerID   string `json:"performerId"`
	AudioURL      string `json:"audioUrl"`
	CoverURL      string `json:"coverUrl"`
	CreatedAt     string `json:"createdAt"`
	Type          string `json:"type"`
}

// rawPerformance 覆盖上游已知的几种响应形态，全部字段可缺省
type rawPerformance struct {
	Performance *rawPerformance `json:"performance"`

	Title            string `json:"title"`
	SongName         string `json:"song_name"`
	Artist           string `json:"artist"`
	WebURL           string `json:"web_url"`
	VideoMediaURL    string `json:"video_media_url"`
	VideoMediaMP4URL string `json:"video_media_mp4_url"`
	MediaURL         string `json:"media_url"`
	CoverURL         string `json:"cover_url"`
	ArtURL           string `json:"art_url"`
	CreatedAt        string `json:"created_at"`
	Type             string `json:"type"`

	SongInfo struct {
		ArtistName string `json:"artist_name"`
	} `json:"song_info"`

	Owner struct {
		Handle    string      `json:"handle"`
		AccountID json.Number `json:"account_id"`
	} `json:"owner"`

	Performers []struct {
		Handle    string      `json:"handle"`
		AccountID json.Number `json:"account_id"`
	} `json:"performers"`
}

// RecordingKey 从录音URL中提取key，支持直接传key
func RecordingKey(recordingURL string) string {
	if !strings.Contains(recordingURL, "smule.com") {
		return recordingURL
	}
	parts := strings.Split(strings.TrimRight(recordingURL, "/"), "/")
	return parts[len(parts)-1]
}

// FetchRecording 按录音URL抓取元数据
// cookie 为用户的会话cookie，上游部分录音需要登录态才可见
func (c *Client) FetchRecording(ctx context.Context, recordingURL, cookie string) (*Recording, error) {
	key := RecordingKey(recordingURL)

	apiURL := fmt.Sprintf("%s/%s/", c.apiBase, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build smule request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", "https://www.smule.com/")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("smule request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrRecordingNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("smule api returned %d", resp.StatusCode)
	}

	var raw rawPerformance
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode smule response: %w", err)
	}

	perf := &raw
	if raw.Performance != nil {
		perf = raw.Performance
	}

	return c.buildRecording(perf, key), nil
}

// buildRecording 按已知优先级探测字段，缺失时回退到CDN直链
func (c *Client) buildRecording(perf *rawPerformance, key string) *Recording {
	rec := &Recording{
		Title:  perf.Title,
		Artist: perf.Artist,
		Type:   perf.Type,
	}

	if rec.Title == "" {
		rec.Title = perf.SongName
	}
	if rec.Title == "" {
		rec.Title = "Untitled"
	}
	if rec.Artist == "" {
		rec.Artist = perf.SongInfo.ArtistName
	}

	// 音频URL的几种已知形态
	switch {
	case perf.WebURL != "":
		rec.AudioURL = perf.WebURL
	case perf.VideoMediaURL != "":
		rec.AudioURL = perf.VideoMediaURL
	case perf.VideoMediaMP4URL != "":
		rec.AudioURL = perf.VideoMediaMP4URL
	case perf.MediaURL != "":
		rec.AudioURL = perf.MediaURL
	default:
		rec.AudioURL = fmt.Sprintf("%s/%s.m4a", c.cdnBase, key)
	}

	rec.CoverURL = perf.CoverURL
	if rec.CoverURL == "" {
		rec.CoverURL = perf.ArtURL
	}
	if rec.CoverURL == "" {
		rec.CoverURL = fmt.Sprintf("%s/%s.jpg", c.cdnBase, key)
	}

	performer := perf.Owner
	if performer.Handle == "" && performer.AccountID == "" && len(perf.Performers) > 0 {
		performer = perf.Performers[0]
	}
	rec.PerformerName = performer.Handle
	if rec.PerformerName == "" {
		rec.PerformerName = performer.AccountID.String()
	}
	if rec.PerformerName == "" {
		rec.PerformerName = "Unknown"
	}
	rec.PerformerID = performer.AccountID.String()

	rec.CreatedAt = perf.CreatedAt
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if rec.Type == "" {
		rec.Type = "solo"
	}

	return rec
}
