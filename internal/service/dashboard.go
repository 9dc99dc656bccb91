package service

import (
	"math"
	"sort"
	"time"

	"jobtracker/internal/models"
)

const topN = 10

// Dashboard is the aggregate view rendered by the dashboard page.
type Dashboard struct {
	Metrics            Metrics        `json:"metrics"`
	StatusCounts       map[string]int `json:"status_counts"`
	SentimentCounts    map[string]int `json:"sentiment_counts"`
	DailyApplications  []DayCount     `json:"daily_applications"`
	TopCompanies       []NameCount    `json:"top_companies"`
	TopJobTitles       []NameCount    `json:"top_job_titles"`
	ActiveApplications []models.Job   `json:"active_applications"`
}

type Metrics struct {
	TotalApplications  int     `json:"total_applications"`
	AvgPerDay          float64 `json:"avg_per_day"`
	AvgPerWeek         float64 `json:"avg_per_week"`
	RecentApplications int     `json:"recent_applications"`
	MostCommonStatus   string  `json:"most_common_status"`
	InterviewCount     int     `json:"interview_count"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// NameCount is one bar of a top-N chart, broken down by status.
type NameCount struct {
	Name     string         `json:"name"`
	Count    int            `json:"count"`
	ByStatus map[string]int `json:"by_status"`
}

var activeStatuses = []string{models.StatusApplied, models.StatusInterviewing, models.StatusOffered}

// ComputeDashboard derives every dashboard figure from the user's jobs.
// Dates are compared as text in the stored timestamp format.
func ComputeDashboard(jobs []models.Job, now time.Time) Dashboard {
	d := Dashboard{
		Metrics:            Metrics{MostCommonStatus: "N/A"},
		StatusCounts:       map[string]int{},
		SentimentCounts:    map[string]int{},
		DailyApplications:  []DayCount{},
		TopCompanies:       []NameCount{},
		TopJobTitles:       []NameCount{},
		ActiveApplications: []models.Job{},
	}
	if len(jobs) == 0 {
		return d
	}

	now = now.UTC()
	cutoff := now.AddDate(0, 0, -7).Format(models.DateLayout)
	earliest := ""
	daily := map[string]int{}

	for _, j := range jobs {
		d.StatusCounts[j.Status]++
		if j.Sentiment != "" {
			d.SentimentCounts[j.Sentiment]++
		}
		if j.DateAdded >= cutoff {
			d.Metrics.RecentApplications++
		}
		if j.Status == models.StatusInterviewing {
			d.Metrics.InterviewCount++
		}
		if day := datePart(j.DateAdded); day != "" {
			daily[day]++
			if earliest == "" || day < earliest {
				earliest = day
			}
		}
		if models.Contains(activeStatuses, j.Status) {
			d.ActiveApplications = append(d.ActiveApplications, j)
		}
	}

	d.Metrics.TotalApplications = len(jobs)
	if first, err := time.Parse(models.DateLayout, earliest); err == nil {
		days := int(now.Sub(first).Hours() / 24)
		if days > 0 {
			d.Metrics.AvgPerDay = round1(float64(len(jobs)) / float64(days))
		}
	}
	d.Metrics.AvgPerWeek = round1(d.Metrics.AvgPerDay * 7)
	d.Metrics.MostCommonStatus = mode(d.StatusCounts)

	for day, n := range daily {
		d.DailyApplications = append(d.DailyApplications, DayCount{Date: day, Count: n})
	}
	sort.Slice(d.DailyApplications, func(a, b int) bool {
		return d.DailyApplications[a].Date < d.DailyApplications[b].Date
	})

	d.TopCompanies = topBy(jobs, func(j models.Job) string { return j.CompanyName })
	d.TopJobTitles = topBy(jobs, func(j models.Job) string { return j.JobTitle })

	sort.SliceStable(d.ActiveApplications, func(a, b int) bool {
		return d.ActiveApplications[a].AppliedDate > d.ActiveApplications[b].AppliedDate
	})
	return d
}

func datePart(ts string) string {
	if len(ts) < len(models.DateLayout) {
		return ""
	}
	return ts[:len(models.DateLayout)]
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// mode returns the most frequent key; ties go to the alphabetically first.
func mode(counts map[string]int) string {
	best, bestN := "N/A", 0
	for k, n := range counts {
		if n > bestN || (n == bestN && k < best) {
			best, bestN = k, n
		}
	}
	return best
}

func topBy(jobs []models.Job, key func(models.Job) string) []NameCount {
	index := map[string]int{}
	var out []NameCount
	for _, j := range jobs {
		name := key(j)
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, NameCount{Name: name, ByStatus: map[string]int{}})
		}
		out[i].Count++
		out[i].ByStatus[j.Status]++
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Name < out[b].Name
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}
