package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFileTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "periods.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("stale content that is long"), 0644))

	m := NewManager(nil)
	sink, err := m.Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, sink.Name())

	_, err = sink.Write([]byte("id\n"))
	require.NoError(t, err)
	_, err = sink.Write([]byte("1\n"))
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id\n1\n", string(data))
	assert.Equal(t, int64(5), m.Written(path))
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "rulers.ndjson")

	sink, err := NewManager(nil).Open(path)
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpenSameFileTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.csv")
	m := NewManager(nil)

	first, err := m.Open(path)
	require.NoError(t, err)

	_, err = m.Open(path)
	assert.Error(t, err)

	require.NoError(t, first.Close())
	second, err := m.Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestOpenFailure(t *testing.T) {
	dir := t.TempDir()
	_, err := NewManager(nil).Open(dir)
	assert.Error(t, err)
}

func TestStdoutSinkIsSharedAndNotClosed(t *testing.T) {
	var out bytes.Buffer
	m := NewManager(&out)

	a, err := m.Open(Stdout)
	require.NoError(t, err)
	b, err := m.Open("")
	require.NoError(t, err)

	_, _ = a.Write([]byte("a"))
	require.NoError(t, a.Close())
	_, _ = b.Write([]byte("b"))

	assert.Equal(t, "ab", out.String())
	assert.Equal(t, Stdout, b.Name())
	assert.Equal(t, int64(2), m.Written(""))
}

func TestStdoutWritesAreWholePages(t *testing.T) {
	var out bytes.Buffer
	m := NewManager(&out)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sink, _ := m.Open(Stdout)
			page := strings.Repeat(fmt.Sprint(i), 64) + "\n"
			for j := 0; j < 25; j++ {
				_, _ = sink.Write([]byte(page))
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 100)
	for _, line := range lines {
		assert.Equal(t, strings.Repeat(line[:1], 64), line)
	}
}

func TestExpandTargets(t *testing.T) {
	labels := []string{"periods", "rulers"}

	tests := []struct {
		name     string
		outputs  []string
		expected []string
	}{
		{"none means stdout", nil, []string{"-", "-"}},
		{"placeholder", []string{"out/{label}.csv"}, []string{"out/periods.csv", "out/rulers.csv"}},
		{"explicit pairs", []string{"a.csv", "b.csv"}, []string{"a.csv", "b.csv"}},
		{"mismatch passes through", []string{"all.csv"}, []string{"all.csv"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandTargets(labels, tt.outputs))
		})
	}
}
