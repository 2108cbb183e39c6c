package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// OperatorSessionKey returns the cache key for an operator's login session.
func (r *CacheKeyStruct) OperatorSessionKey(operatorID int) string {
	return fmt.Sprintf("login:%d", operatorID)
}

// PublicFormKey returns the cache key for a form payload fetched by share token.
func (r *CacheKeyStruct) PublicFormKey(shareToken string) string {
	return fmt.Sprintf("form:share:%s:payload", shareToken)
}

// ResponseCountKey returns the cache key for a form's running response count.
func (r *CacheKeyStruct) ResponseCountKey(formID int64) string {
	return fmt.Sprintf("form:%d:response_count", formID)
}

// SubmissionOnceKey returns the cache key marking a respondent's submission
// against a form that disallows multiple responses.
func (r *CacheKeyStruct) SubmissionOnceKey(formID int64, respondentKey string) string {
	return fmt.Sprintf("form:%d:submitted:%s", formID, respondentKey)
}

// ResponseStreamChannel returns the Redis PubSub channel name carrying
// new-response events for a form.
func (r *CacheKeyStruct) ResponseStreamChannel(formID int64) string {
	return fmt.Sprintf("form:%d:responses", formID)
}

var CacheKey = NewCacheKeyStruct()
