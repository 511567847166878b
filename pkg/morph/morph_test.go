package morph

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLower_Normalize(t *testing.T) {
	assert.Equal(t, "удивительно", Lower{}.Normalize("Удивительно"))
	// "й" を分解形 (и + U+0306) で渡しても合成形に揃う
	assert.Equal(t, "мой", Lower{}.Normalize("МОй"))
}

func TestDictionary_Normalize(t *testing.T) {
	dict := NewDictionary(map[string]string{
		"Хочет":   "хотеть",
		"стало":   "стать",
		"началом": "начало",
		"":        "пусто",
	})

	assert.Equal(t, 3, dict.Len())
	assert.Equal(t, "хотеть", dict.Normalize("хочет"))
	assert.Equal(t, "стать", dict.Normalize("Стало"))
	assert.Equal(t, "чтобы", dict.Normalize("Чтобы"), "辞書にない語は小文字化のみ")
}

func TestLoadDictionary(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		p := filepath.Join(dir, "lemmas.tsv")
		require.NoError(t, os.WriteFile(p, []byte("# form\tlemma\nхочет\tхотеть\n\nстало\tстать\n"), 0o600))

		dict, err := LoadDictionary(p)
		require.NoError(t, err)
		assert.Equal(t, 2, dict.Len())
		assert.Equal(t, "стать", dict.Normalize("стало"))
	})

	t.Run("malformed line", func(t *testing.T) {
		p := filepath.Join(dir, "broken.tsv")
		require.NoError(t, os.WriteFile(p, []byte("хочет хотеть\n"), 0o600))

		_, err := LoadDictionary(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken.tsv:1")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDictionary(filepath.Join(dir, "none.tsv"))
		assert.Error(t, err)
	})
}

// countingNormalizer は同時実行数の最大値を記録します。
type countingNormalizer struct {
	mu      sync.Mutex
	active  int
	maxSeen int
}

func (c *countingNormalizer) Normalize(token string) string {
	c.mu.Lock()
	c.active++
	if c.active > c.maxSeen {
		c.maxSeen = c.active
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.active--
		c.mu.Unlock()
	}()
	return token
}

func TestSerialized_Normalize(t *testing.T) {
	inner := &countingNormalizer{}
	s := NewSerialized(inner)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "слово", s.Normalize("слово"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inner.maxSeen, "内部の Normalizer は同時に1つしか呼ばれない")
}
