package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"mining-etl/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrMissingPrecipitation 响应中没有 daily.precipitation_sum[0]
var ErrMissingPrecipitation = errors.New("response has no daily.precipitation_sum value")

// Location 查询坐标
type Location struct {
	Latitude  float64
	Longitude float64
	Timezone  string
}

// ForecastResponse open-meteo /v1/forecast 响应（仅需要的字段）
type ForecastResponse struct {
	Daily *struct {
		Time             []string   `json:"time"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
	} `json:"daily"`
}

// Client open-meteo 天气 API 客户端
type Client struct {
	httpClient *resty.Client
	location   Location
	logger     *zap.Logger
}

// NewClient 创建天气 API 客户端
func NewClient(baseURL string, location Location, timeout time.Duration, retryCount int, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		location:   location,
		logger:     logger,
	}
}

// DailyPrecipitation 查询单日降雨量（毫米）
// 传输失败、非 2xx、响应格式错误或字段缺失时返回错误
func (c *Client) DailyPrecipitation(ctx context.Context, date time.Time) (float64, error) {
	day := date.Format(models.DateLayout)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":   strconv.FormatFloat(c.location.Latitude, 'f', 4, 64),
			"longitude":  strconv.FormatFloat(c.location.Longitude, 'f', 4, 64),
			"daily":      "temperature_2m_mean,precipitation_sum",
			"timezone":   c.location.Timezone,
			"start_date": day,
			"end_date":   day,
		}).
		Get("/v1/forecast")
	if err != nil {
		return 0, fmt.Errorf("failed to call weather API: %w", err)
	}

	if resp.IsError() {
		return 0, fmt.Errorf("weather API returned status %d", resp.StatusCode())
	}

	return ParsePrecipitation(resp.Body())
}

// ParsePrecipitation 从响应体中取 daily.precipitation_sum[0]
func ParsePrecipitation(body []byte) (float64, error) {
	var payload ForecastResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0, fmt.Errorf("failed to unmarshal weather response: %w", err)
	}

	if payload.Daily == nil || len(payload.Daily.PrecipitationSum) == 0 || payload.Daily.PrecipitationSum[0] == nil {
		return 0, ErrMissingPrecipitation
	}

	return *payload.Daily.PrecipitationSum[0], nil
}
