package mempool

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBuffer_Empty(t *testing.T) {
	buf := GetBuffer()
	require.NotNil(t, buf)
	assert.Equal(t, 0, buf.Len())

	buf.WriteString("frame")
	PutBuffer(buf)

	again := GetBuffer()
	assert.Equal(t, 0, again.Len(), "reused buffers must come back reset")
	PutBuffer(again)
}

func TestPutBuffer_Nil(t *testing.T) {
	assert.NotPanics(t, func() { PutBuffer(nil) })
}

func TestPutBuffer_Oversized(t *testing.T) {
	big := bytes.NewBuffer(make([]byte, 0, MaxPooledBytes+1))
	assert.NotPanics(t, func() { PutBuffer(big) })
}

func TestBuffer_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				buf := GetBuffer()
				if buf.Len() != 0 {
					t.Errorf("buffer not reset: %d bytes", buf.Len())
				}
				buf.Write(make([]byte, n*j))
				PutBuffer(buf)
			}
		}(i)
	}
	wg.Wait()
}

func BenchmarkGetPutBuffer(b *testing.B) {
	payload := make([]byte, 64*1024)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf := GetBuffer()
		buf.Write(payload)
		PutBuffer(buf)
	}
}
