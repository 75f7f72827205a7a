package services

// ProgressionMetrics is satisfied by *observability.Metrics. A nil value disables recording.
type ProgressionMetrics interface {
	ObserveXP(source string, amount int64, leveledUp bool)
	ObserveQuiz(passed bool, percentage int)
	IncChapterCompleted()
	IncAchievement()
	IncStreakReset()
	IncCourseGeneration(outcome string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveXP(string, int64, bool) {}
func (noopMetrics) ObserveQuiz(bool, int)         {}
func (noopMetrics) IncChapterCompleted()          {}
func (noopMetrics) IncAchievement()               {}
func (noopMetrics) IncStreakReset()               {}
func (noopMetrics) IncCourseGeneration(string)    {}

func orNoop(m ProgressionMetrics) ProgressionMetrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
