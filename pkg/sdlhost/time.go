package sdlhost

import (
	"math"
	"time"
)

func sdlNow() int64 {
	return time.Now().Unix()
}

func float32bits(f float32) uint32 {
	return math.Float32bits(f)
}
