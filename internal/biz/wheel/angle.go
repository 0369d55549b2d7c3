package wheel

import "math"

// TwoPi 一整圈
const TwoPi = 2 * math.Pi

// SliceAngle 每个扇区的角度 2π/N
func SliceAngle(n int) float64 {
	return TwoPi / float64(n)
}

// ComputeTargetAngle 让第 index 个扇区中心对准顶部指针所需的旋转角：-(index·2π/N + π/N)
func ComputeTargetAngle(index, n int) float64 {
	slice := SliceAngle(n)
	return -(float64(index)*slice + slice/2)
}

// Normalize 归一化到 [0, 2π)
func Normalize(angle float64) float64 {
	a := math.Mod(angle, TwoPi)
	if a < 0 {
		a += TwoPi
	}
	// -ε + 2π 可能舍入为 2π
	if a >= TwoPi {
		a = 0
	}
	return a
}

// SegmentAt 给定累计旋转角，返回位于顶部指针下的扇区
func SegmentAt(rotation float64, n int) int {
	// 指针在未旋转坐标系中相对扇区 0 起点的偏移为 -rotation
	offset := Normalize(-rotation)
	i := int(offset / SliceAngle(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// AngularDistance 两个角度之间的最小夹角，范围 [0, π]
func AngularDistance(a, b float64) float64 {
	d := Normalize(a - b)
	if d > math.Pi {
		d = TwoPi - d
	}
	return d
}
