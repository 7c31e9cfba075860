package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatTimeDuration 格式化时间长度为易读格式
func FormatTimeDuration(seconds float64) string {
	hours := int(seconds) / 3600
	minutes := (int(seconds) % 3600) / 60
	secs := int(seconds) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}
	if seconds < 1 {
		return fmt.Sprintf("%dms", int(seconds*1000))
	}
	return fmt.Sprintf("%ds", secs)
}

// 微秒数超过该值时换算成 time.Duration 会溢出
const maxMicroseconds = float64(math.MaxInt64 / int64(time.Microsecond))

// ParseSeconds 解析以秒为单位的非负时间戳，精确到微秒
func ParseSeconds(s string) (time.Duration, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("非法时间值: %s", s)
	}
	us := math.Round(v * 1e6)
	if us >= maxMicroseconds {
		return 0, fmt.Errorf("时间值超出范围: %s", s)
	}
	return time.Duration(us) * time.Microsecond, nil
}

// FormatSeconds 以最短的十进制形式输出秒数（微秒精度），例如 1.5、0.3、12
func FormatSeconds(d time.Duration) string {
	us := d.Microseconds()
	sign := ""
	if us < 0 {
		sign = "-"
		us = -us
	}
	sec, frac := us/1e6, us%1e6
	if frac == 0 {
		return sign + strconv.FormatInt(sec, 10)
	}
	return fmt.Sprintf("%s%d.%s", sign, sec, strings.TrimRight(fmt.Sprintf("%06d", frac), "0"))
}
