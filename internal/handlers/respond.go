package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mateusvsilva/perfume-shop/internal/mykafka"
)

func errorResponse(c echo.Context, code int, msg string) error {
	return c.JSON(code, echo.Map{"error": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func publish(c echo.Context, producer *mykafka.Producer, topic string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	key := ""
	if v, ok := event["userID"]; ok {
		key = toKey(v)
	}
	if err := producer.PublishEvent(ctx, topic, key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func toKey(v any) string {
	switch n := v.(type) {
	case uint:
		return strconv.FormatUint(uint64(n), 10)
	case int:
		return strconv.Itoa(n)
	case string:
		return n
	default:
		return ""
	}
}
