package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PaperQuestionsKey returns the cache key for a paper's validated question set
func (r *CacheKeyStruct) PaperQuestionsKey(paperID string) string {
	return fmt.Sprintf("paper:%s:questions", paperID)
}

var CacheKey = NewCacheKeyStruct()
