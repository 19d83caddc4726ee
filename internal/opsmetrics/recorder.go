package opsmetrics

import "sync"

type Recorder interface {
	RecordQuizAttempt()
	RecordReferralSignup()
	RecordQuotaRejected()
	UpdateActiveSessions(count int)
}

type recorder struct {
	metrics *metrics
}

type noopRecorder struct{}

func (noopRecorder) RecordQuizAttempt()       {}
func (noopRecorder) RecordReferralSignup()    {}
func (noopRecorder) RecordQuotaRejected()     {}
func (noopRecorder) UpdateActiveSessions(int) {}

var (
	activeRecorder Recorder = noopRecorder{}
	recorderMu     sync.RWMutex
)

func setRecorder(rec Recorder) {
	if rec == nil {
		return
	}
	recorderMu.Lock()
	activeRecorder = rec
	recorderMu.Unlock()
}

func RecordQuizAttempt() {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.RecordQuizAttempt()
}

func RecordReferralSignup() {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.RecordReferralSignup()
}

func RecordQuotaRejected() {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.RecordQuotaRejected()
}

func UpdateActiveSessions(count int) {
	recorderMu.RLock()
	rec := activeRecorder
	recorderMu.RUnlock()
	rec.UpdateActiveSessions(count)
}

func (r *recorder) RecordQuizAttempt() {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.quizAttempts.Inc()
}

func (r *recorder) RecordReferralSignup() {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.referralSignups.Inc()
}

func (r *recorder) RecordQuotaRejected() {
	if r == nil || r.metrics == nil {
		return
	}
	r.metrics.quotaRejections.Inc()
}

func (r *recorder) UpdateActiveSessions(count int) {
	if r == nil || r.metrics == nil {
		return
	}
	if count < 0 {
		count = 0
	}
	r.metrics.activeSessions.Set(float64(count))
}
