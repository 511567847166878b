package charge

import (
	"archive/zip"
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// ErrEmptyVocabulary は読み込んだ語彙が1語も含まない場合に返されます。
var ErrEmptyVocabulary = errors.New("誇張語の辞書が空です")

// LoadVocabulary は path から語彙を読み込みます。
// 拡張子が .zip の場合はアーカイブ内のすべての .txt を、それ以外はプレーンテキストとして読みます。
// いずれも1行1語です。
func LoadVocabulary(filePath string) (*Vocabulary, error) {
	var (
		words []string
		err   error
	)

	if strings.EqualFold(path.Ext(filePath), ".zip") {
		words, err = readZip(filePath)
	} else {
		words, err = readFile(filePath)
	}
	if err != nil {
		return nil, err
	}

	vocab := NewVocabulary(words...)
	if vocab.Len() == 0 {
		return nil, fmt.Errorf("%w (path: %s)", ErrEmptyVocabulary, filePath)
	}
	return vocab, nil
}

func readFile(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("辞書ファイルを開けません: %w", err)
	}
	defer f.Close()

	words, err := readLines(f)
	if err != nil {
		return nil, fmt.Errorf("辞書ファイルの読み込みに失敗しました (%s): %w", filePath, err)
	}
	return words, nil
}

func readZip(filePath string) ([]string, error) {
	archive, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("辞書アーカイブを開けません: %w", err)
	}
	defer archive.Close()

	var words []string
	for _, member := range archive.File {
		if member.FileInfo().IsDir() || !strings.EqualFold(path.Ext(member.Name), ".txt") {
			continue
		}

		rc, err := member.Open()
		if err != nil {
			return nil, fmt.Errorf("アーカイブ内のファイルを開けません (%s): %w", member.Name, err)
		}
		lines, err := readLines(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("アーカイブ内のファイルの読み込みに失敗しました (%s): %w", member.Name, err)
		}
		words = append(words, lines...)
	}
	return words, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
