// internal/report/junit.go
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/beevik/etree"
)

// JUnitReporter emits JUnit-style XML for CI ingestion. One testsuite per
// run, one testcase per scenario.
type JUnitReporter struct {
	writer io.WriteCloser
}

// NewJUnitReporter takes ownership of the writer.
func NewJUnitReporter(writer io.WriteCloser) *JUnitReporter {
	return &JUnitReporter{writer: writer}
}

func (r *JUnitReporter) Write(run *RunReport) error {
	run.Recompute()

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	suites := doc.CreateElement("testsuites")
	suites.CreateAttr("name", run.SuiteName)
	suites.CreateAttr("tests", fmt.Sprintf("%d", run.Totals.Total))
	suites.CreateAttr("failures", fmt.Sprintf("%d", run.Totals.Failed))
	suites.CreateAttr("time", junitSeconds(run.Duration))

	suite := suites.CreateElement("testsuite")
	suite.CreateAttr("name", run.SuiteName)
	suite.CreateAttr("tests", fmt.Sprintf("%d", run.Totals.Total))
	suite.CreateAttr("failures", fmt.Sprintf("%d", run.Totals.Failed))
	suite.CreateAttr("skipped", fmt.Sprintf("%d", run.Totals.Skipped))
	suite.CreateAttr("timestamp", run.StartedAt.UTC().Format("2006-01-02T15:04:05"))
	suite.CreateAttr("time", junitSeconds(run.Duration))

	for _, s := range run.Scenarios {
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("name", s.Name)
		tc.CreateAttr("classname", run.SuiteName)
		tc.CreateAttr("time", junitSeconds(s.Duration))

		switch s.Status {
		case StatusFailed:
			failure := tc.CreateElement("failure")
			failure.CreateAttr("message", s.Error)
			failure.SetText(failureDetail(s))
		case StatusSkipped:
			tc.CreateElement("skipped")
		}
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(r.writer); err != nil {
		return fmt.Errorf("failed to write JUnit report: %w", err)
	}
	return nil
}

func (r *JUnitReporter) Close() error {
	return r.writer.Close()
}

func junitSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

// failureDetail assembles the failure element body: the error plus any
// artifact paths captured for the scenario.
func failureDetail(s ScenarioResult) string {
	detail := s.Error
	for _, a := range s.Attachments {
		detail += fmt.Sprintf("\n%s: %s", a.Name, a.Path)
	}
	return detail
}
