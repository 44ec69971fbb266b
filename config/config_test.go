package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/Swind/go-task-pool/config"
	"github.com/Swind/go-task-pool/core"
)

var _ = Describe("Config", func() {
	Describe("Default", func() {
		It("should fill every default", func() {
			cfg := config.Default()

			Expect(cfg.ID).To(Equal("pool"))
			Expect(cfg.Mode).To(Equal("stealing"))
			Expect(cfg.Workers).To(BeZero())
			Expect(cfg.IdleSpins).To(Equal(64))
			Expect(cfg.PinWorkers).To(BeFalse())
			Expect(cfg.HistoryCapacity).To(Equal(100))
			Expect(cfg.Log.Level).To(Equal("info"))
			Expect(cfg.Log.Format).To(Equal("console"))
			Expect(cfg.Validate()).To(Succeed())
			Expect(cfg.PoolMode()).To(Equal(core.ModeStealing))
		})
	})

	Describe("Load", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		writeFile := func(body string) string {
			path := filepath.Join(dir, "pool.yaml")
			Expect(os.WriteFile(path, []byte(body), 0o600)).To(Succeed())
			return path
		}

		It("should return defaults without a file", func() {
			cfg, err := config.Load("")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.Default()))
		})

		It("should read a YAML file over the defaults", func() {
			path := writeFile(`
id: bench
mode: shared
workers: 6
log:
  level: debug
  format: json
`)
			cfg, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.ID).To(Equal("bench"))
			Expect(cfg.PoolMode()).To(Equal(core.ModeShared))
			Expect(cfg.Workers).To(Equal(6))
			Expect(cfg.IdleSpins).To(Equal(64), "untouched keys keep their default")
			Expect(cfg.Log.Level).To(Equal("debug"))
			Expect(cfg.Log.Format).To(Equal("json"))
		})

		It("should let the environment override the file", func() {
			path := writeFile("workers: 2\n")
			GinkgoT().Setenv("TASKPOOL_WORKERS", "12")
			GinkgoT().Setenv("TASKPOOL_LOG_LEVEL", "warn")

			cfg, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Workers).To(Equal(12))
			Expect(cfg.Log.Level).To(Equal("warn"))
		})

		It("should let values set on the viper instance win", func() {
			v := viper.New()
			v.Set("idle_spins", -1)

			cfg, err := config.LoadWith(v, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.IdleSpins).To(Equal(-1))
		})

		It("should fail on a missing file", func() {
			_, err := config.Load(filepath.Join(dir, "missing.yaml"))
			Expect(err).To(MatchError(ContainSubstring("read config")))
		})

		It("should reject an invalid file", func() {
			path := writeFile("mode: lifo\n")
			_, err := config.Load(path)
			Expect(err).To(MatchError(ContainSubstring("unknown pool mode")))
		})
	})

	Describe("Validate", func() {
		It("should report every problem at once", func() {
			cfg := config.Default()
			cfg.ID = " "
			cfg.Workers = -2
			cfg.IdleSpins = -5
			cfg.HistoryCapacity = -1
			cfg.Log.Level = "loud"
			cfg.Log.Format = "xml"

			err := cfg.Validate()
			Expect(err).To(HaveOccurred())
			msg := err.Error()
			Expect(msg).To(HavePrefix("invalid configuration:"))
			Expect(msg).To(ContainSubstring("id must not be empty"))
			Expect(msg).To(ContainSubstring("workers must be >= 0"))
			Expect(msg).To(ContainSubstring("idle_spins must be >= -1"))
			Expect(msg).To(ContainSubstring("history_capacity must be >= 0"))
			Expect(msg).To(ContainSubstring("log.level"))
			Expect(msg).To(ContainSubstring("log.format"))
		})

		It("should accept -1 idle spins", func() {
			cfg := config.Default()
			cfg.IdleSpins = -1
			Expect(cfg.Validate()).To(Succeed())
		})
	})

	Describe("BuildLogger", func() {
		DescribeTable("should honour level and format",
			func(level, format string, enabled zapcore.Level) {
				logger, err := config.BuildLogger(config.Log{Level: level, Format: format})
				Expect(err).NotTo(HaveOccurred())
				Expect(logger.Core().Enabled(enabled)).To(BeTrue())
				Expect(logger.Core().Enabled(enabled - 1)).To(BeFalse())
			},
			Entry("console debug", "debug", "console", zapcore.DebugLevel),
			Entry("json info", "info", "json", zapcore.InfoLevel),
			Entry("json error", "error", "json", zapcore.ErrorLevel),
		)

		It("should reject an unknown level", func() {
			_, err := config.BuildLogger(config.Log{Level: "loud", Format: "json"})
			Expect(err).To(HaveOccurred())
		})
	})
})
