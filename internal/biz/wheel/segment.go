package wheel

import (
	"fmt"
	"strconv"
	"strings"
)

// Segment 转盘上的一个扇区
type Segment struct {
	Label string `json:"label"`
	Color string `json:"color"` // #RRGGBB
	Prize bool   `json:"prize"`
}

// DefaultSegments 默认 8 个扇区，奖品与安慰项交错
func DefaultSegments() []Segment {
	return []Segment{
		{Label: "大奖", Color: "#FF6B6B", Prize: true},
		{Label: "谢谢参与", Color: "#4ECDC4", Prize: false},
		{Label: "二等奖", Color: "#FFE66D", Prize: true},
		{Label: "再接再厉", Color: "#95E1D3", Prize: false},
		{Label: "特别奖", Color: "#FF8C94", Prize: true},
		{Label: "下次努力", Color: "#A8E6CF", Prize: false},
		{Label: "继续加油", Color: "#C7CEEA", Prize: false},
		{Label: "差一点点", Color: "#FFDAC1", Prize: false},
	}
}

// Wheel 启动时确定的不可变扇区列表
type Wheel struct {
	segments []Segment
}

// New 校验并复制扇区列表，至少 2 个扇区
func New(segments []Segment) (*Wheel, error) {
	if len(segments) < 2 {
		return nil, fmt.Errorf("wheel needs at least 2 segments, got %d", len(segments))
	}
	cp := make([]Segment, len(segments))
	for i, s := range segments {
		if strings.TrimSpace(s.Label) == "" {
			return nil, fmt.Errorf("segment %d: empty label", i)
		}
		if _, _, _, err := ParseHexColor(s.Color); err != nil {
			return nil, fmt.Errorf("segment %d (%s): %w", i, s.Label, err)
		}
		cp[i] = s
	}
	return &Wheel{segments: cp}, nil
}

// Len 扇区数 N
func (w *Wheel) Len() int {
	return len(w.segments)
}

// Segments 返回副本
func (w *Wheel) Segments() []Segment {
	return append([]Segment(nil), w.segments...)
}

func (w *Wheel) Segment(i int) Segment {
	return w.segments[i]
}

// ParseHexColor 解析 #RGB / #RRGGBB
func ParseHexColor(s string) (r, g, b uint8, err error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}
