package runcmder

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("newLogger", func() {
	var (
		console bytes.Buffer
		logFile string
	)

	BeforeEach(func() {
		console.Reset()
		logFile = filepath.Join(GinkgoT().TempDir(), "logs", "bridge.json")
	})

	readFileRecords := func() []map[string]any {
		data, err := os.ReadFile(logFile)
		Expect(err).NotTo(HaveOccurred())

		var records []map[string]any
		for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
			var rec map[string]any
			Expect(json.Unmarshal([]byte(line), &rec)).To(Succeed())
			records = append(records, rec)
		}
		return records
	}

	It("logs only to the console without a log file", func() {
		l, closeLog, err := newLogger(&console, false, false, "")
		Expect(err).NotTo(HaveOccurred())
		l.Info("stream connected")
		Expect(closeLog()).To(Succeed())

		Expect(console.String()).To(ContainSubstring("stream connected"))
		_, err = os.Stat(logFile)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("writes pretty console output and JSON to the file", func() {
		l, closeLog, err := newLogger(&console, false, false, logFile)
		Expect(err).NotTo(HaveOccurred())
		l.Info("stream connected", "attempt_id", "a1")
		l.Debug("filtered")
		Expect(closeLog()).To(Succeed())

		Expect(console.String()).To(ContainSubstring("stream connected"))
		Expect(console.String()).NotTo(HavePrefix("{"))

		records := readFileRecords()
		Expect(records).To(HaveLen(1))
		Expect(records[0]["msg"]).To(Equal("stream connected"))
		Expect(records[0]["attempt_id"]).To(Equal("a1"))
	})

	It("shares one JSON handler between console and file", func() {
		l, closeLog, err := newLogger(&console, true, true, logFile)
		Expect(err).NotTo(HaveOccurred())
		l.Debug("dispatched frame")
		Expect(closeLog()).To(Succeed())

		var rec map[string]any
		Expect(json.Unmarshal(console.Bytes(), &rec)).To(Succeed())
		Expect(rec["msg"]).To(Equal("dispatched frame"))

		records := readFileRecords()
		Expect(records).To(HaveLen(1))
		Expect(records[0]).To(HaveKey("source"))
	})

	It("fails when the log file cannot be opened", func() {
		dir := GinkgoT().TempDir()
		_, _, err := newLogger(&console, false, false, dir)
		Expect(err).To(MatchError(ContainSubstring("opening log file")))
	})
})
