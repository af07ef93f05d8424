package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

var errEmptyScore = errors.New("empty score")

// ScoreInput 接受 JSON 数字或字符串（表单里常见 "8,5"）
type ScoreInput string

func (s *ScoreInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = ScoreInput(v)
		return nil
	}
	*s = ScoreInput(b)
	return nil
}

func (s ScoreInput) Float() (float64, error) {
	v := strings.TrimSpace(string(s))
	if v == "" {
		return 0, errEmptyScore
	}
	v = strings.Replace(v, ",", ".", 1)
	return strconv.ParseFloat(v, 64)
}
