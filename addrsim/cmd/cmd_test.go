package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func runAddrsim(input string, args ...string) (string, string, error) {
	stdout := bytes.NewBuffer(nil)
	stderr := bytes.NewBuffer(nil)

	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(input))
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()

	return stdout.String(), stderr.String(), err
}

func setenv(key, value string) {
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(os.Unsetenv, key)
}

var _ = Describe("addrsim cache", func() {
	It("should configure from the menu, then read", func() {
		out, _, err := runAddrsim("1 8 4 2  2 0 5  2 0 5  3", "cache")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("1) Enter parameters"))
		Expect(out).To(ContainSubstring("3) Quit"))
		Expect(out).To(ContainSubstring("Read miss!\n" +
			"Word 1 of block 0 with tag 1 contains value 3"))
		Expect(out).To(ContainSubstring("Read hit!\n"))
	})

	It("should start configured when sizes are given", func() {
		out, _, err := runAddrsim("2 1 5 42  3",
			"cache", "--mm-size", "8", "--cache-size", "4", "--block-size", "2")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Write miss!\n" +
			"Word 1 of block 0 with tag 1 contains value 42"))
	})

	It("should refuse to access an unconfigured cache", func() {
		out, _, err := runAddrsim("2 3", "cache")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Error: simulator not configured"))
		Expect(out).NotTo(ContainSubstring("Select read (0) or write (1)"))
	})

	It("should report configuration errors and keep going", func() {
		out, _, err := runAddrsim("1 8 2 4  3", "cache")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Error: invalid configuration"))
	})

	It("should return to the menu on a bad selection", func() {
		out, _, err := runAddrsim("1 8 4 2  2 7  3", "cache")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("bad selection"))
		Expect(strings.Count(out, "Enter selection: ")).To(Equal(3))
	})

	It("should report out of range addresses", func() {
		out, _, err := runAddrsim("2 0 8  3",
			"cache", "--mm-size", "8", "--cache-size", "4", "--block-size", "2")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Error: address out of range"))
	})

	It("should stop at the end of the input", func() {
		_, _, err := runAddrsim("1 8", "cache")

		Expect(err).NotTo(HaveOccurred())
	})

	It("should fail on an impossible geometry given by flags", func() {
		_, _, err := runAddrsim("3",
			"cache", "--mm-size", "8", "--cache-size", "2", "--block-size", "4")

		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("addrsim pagetable", func() {
	It("should evict the oldest page with FIFO", func() {
		out, _, err := runAddrsim("2 0  2 4  2 8  2 12  2 16  3  4",
			"pagetable", "--mm-size", "16", "--page-size", "4",
			"--policy", "fifo")

		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Count(out, "Page fault!")).To(Equal(5))
		Expect(out).To(ContainSubstring(
			"VP 1 --> PF 1\nVP 2 --> PF 2\nVP 3 --> PF 3\nVP 4 --> PF 0\n"))
	})

	It("should translate after a fault", func() {
		out, _, err := runAddrsim("1 16 4 0  2 5  2 5  4", "pt")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("4) Quit"))
		Expect(out).To(ContainSubstring("Page fault!"))
		Expect(out).To(ContainSubstring(
			"Virtual address 5 maps to physical address 1"))
	})

	It("should reject an unknown policy from the menu", func() {
		out, _, err := runAddrsim("1 16 4 7  4", "pagetable")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Error: invalid configuration"))
	})

	It("should reject an unknown policy flag", func() {
		_, _, err := runAddrsim("4", "pagetable", "--policy", "clock")

		Expect(err).To(HaveOccurred())
	})

	It("should print nothing for an empty table", func() {
		out, _, err := runAddrsim("3 4", "pagetable")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).NotTo(ContainSubstring("VP "))
	})
})

var _ = Describe("configuration", func() {
	It("should take defaults from the environment", func() {
		setenv("ADDRSIM_MM_SIZE", "8")
		setenv("ADDRSIM_PAGE_SIZE", "4")
		setenv("ADDRSIM_POLICY", "1")

		out, _, err := runAddrsim("2 0  2 4  2 8  3  4", "pagetable")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("VP 1 --> PF 1\nVP 2 --> PF 0\n"))
	})

	It("should prefer flags to the environment", func() {
		setenv("ADDRSIM_PAGE_SIZE", "64")

		out, _, err := runAddrsim("2 5  2 5  4",
			"pagetable", "--mm-size", "16", "--page-size", "4")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(
			"Virtual address 5 maps to physical address 1"))
	})

	It("should load an env file", func() {
		envFile := filepath.Join(GinkgoT().TempDir(), "addrsim.env")
		Expect(os.WriteFile(envFile, []byte(
			"ADDRSIM_MM_SIZE=8\nADDRSIM_CACHE_SIZE=4\nADDRSIM_BLOCK_SIZE=2\n",
		), 0o644)).To(Succeed())
		DeferCleanup(os.Unsetenv, "ADDRSIM_MM_SIZE")
		DeferCleanup(os.Unsetenv, "ADDRSIM_CACHE_SIZE")
		DeferCleanup(os.Unsetenv, "ADDRSIM_BLOCK_SIZE")

		out, _, err := runAddrsim("2 0 5  3", "cache", "--env-file", envFile)

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Read miss!"))
	})

	It("should fail on a missing env file given explicitly", func() {
		_, _, err := runAddrsim("3", "cache", "--env-file", "missing.env")

		Expect(err).To(HaveOccurred())
	})

	It("should fail on a malformed environment value", func() {
		setenv("ADDRSIM_MM_SIZE", "many")

		_, _, err := runAddrsim("3", "cache")

		Expect(err).To(MatchError(ContainSubstring("ADDRSIM_MM_SIZE")))
	})

	It("should name environment variables after flags", func() {
		Expect(envName("monitor-port")).To(Equal("ADDRSIM_MONITOR_PORT"))
	})
})

var _ = Describe("logging", func() {
	It("should log events at debug level", func() {
		_, stderr, err := runAddrsim("2 0 5  3",
			"cache", "--mm-size", "8", "--cache-size", "4", "--block-size", "2",
			"--log-level", "debug")

		Expect(err).NotTo(HaveOccurred())
		Expect(stderr).To(ContainSubstring("msg=CacheAccess"))
		Expect(stderr).To(ContainSubstring("cache finished"))
	})

	It("should hide events at info level", func() {
		_, stderr, err := runAddrsim("2 0 5  3",
			"cache", "--mm-size", "8", "--cache-size", "4", "--block-size", "2")

		Expect(err).NotTo(HaveOccurred())
		Expect(stderr).NotTo(ContainSubstring("msg=CacheAccess"))
	})

	It("should also write to a log file", func() {
		logFile := filepath.Join(GinkgoT().TempDir(), "addrsim.log")

		_, _, err := runAddrsim("4", "pagetable", "--log-file", logFile)
		Expect(err).NotTo(HaveOccurred())

		content, err := os.ReadFile(logFile)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(content)).To(ContainSubstring("page table finished"))
	})

	It("should reject unknown levels", func() {
		_, _, err := runAddrsim("3", "cache", "--log-level", "loud")

		Expect(err).To(MatchError(ContainSubstring("invalid log level")))
	})
})

var _ = Describe("recording", func() {
	It("should record accesses and report them", func() {
		base := filepath.Join(GinkgoT().TempDir(), "run")

		_, _, err := runAddrsim("2 0 5  2 1 5 42  3",
			"cache", "--mm-size", "8", "--cache-size", "4", "--block-size", "2",
			"--record", base)
		Expect(err).NotTo(HaveOccurred())

		out, stderr, err := runAddrsim("", "report", base+".sqlite3")

		Expect(err).NotTo(HaveOccurred())
		lines := strings.Split(strings.TrimSpace(out), "\n")
		Expect(lines).To(HaveLen(2))
		Expect(lines[0]).To(ContainSubstring(`"mode":"read"`))
		Expect(lines[1]).To(ContainSubstring(`"value":42`))
		Expect(stderr).To(ContainSubstring("2 of 2 entries"))
		Expect(lines[0]).To(ContainSubstring(`"line":0`))
	})

	It("should skip entries without a limit", func() {
		base := filepath.Join(GinkgoT().TempDir(), "run")

		_, _, err := runAddrsim("2 0 5  2 1 5 42  3",
			"cache", "--mm-size", "8", "--cache-size", "4", "--block-size", "2",
			"--record", base)
		Expect(err).NotTo(HaveOccurred())

		out, stderr, err := runAddrsim("", "report", base+".sqlite3",
			"--offset", "1")

		Expect(err).NotTo(HaveOccurred())
		lines := strings.Split(strings.TrimSpace(out), "\n")
		Expect(lines).To(HaveLen(1))
		Expect(lines[0]).To(ContainSubstring(`"value":42`))
		Expect(stderr).To(ContainSubstring("1 of 2 entries"))
	})

	It("should filter a reported table", func() {
		base := filepath.Join(GinkgoT().TempDir(), "run")

		_, _, err := runAddrsim("2 0  2 0  2 9  4",
			"pagetable", "--mm-size", "4", "--page-size", "4",
			"--record", base)
		Expect(err).NotTo(HaveOccurred())

		out, _, err := runAddrsim("", "report", base+".sqlite3",
			"--table", "translations", "--where", "Fault = 1")
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Split(strings.TrimSpace(out), "\n")).To(HaveLen(2))

		out, _, err = runAddrsim("", "report", base+".sqlite3",
			"--table", "evictions")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(`"virtual_page":0`))
	})

	It("should reject unknown tables", func() {
		base := filepath.Join(GinkgoT().TempDir(), "run")

		_, _, err := runAddrsim("3", "cache", "--record", base)
		Expect(err).NotTo(HaveOccurred())

		_, _, err = runAddrsim("", "report", base+".sqlite3", "--table", "x")
		Expect(err).To(MatchError(ContainSubstring("unknown table")))
	})
})

var _ = Describe("scripts and monitoring", func() {
	It("should read the menu input from a script", func() {
		script := filepath.Join(GinkgoT().TempDir(), "session.txt")
		Expect(os.WriteFile(script, []byte("2 3\n2 3\n4\n"), 0o644)).
			To(Succeed())

		out, _, err := runAddrsim("", "pagetable",
			"--mm-size", "8", "--page-size", "4",
			"--script", script, "--monitor")

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(
			"Virtual address 3 maps to physical address 3"))
	})

	It("should fail on a missing script", func() {
		_, _, err := runAddrsim("", "cache", "--script", "missing.txt")

		Expect(err).To(MatchError(ContainSubstring("reading script")))
	})
})

var _ = Describe("prompter", func() {
	It("should report each prompt and each answer", func() {
		out := bytes.NewBuffer(nil)
		p := newPrompter(strings.NewReader("8 -3"), out)

		asked, answered := 0, 0
		p.onAsk = func() { asked++ }
		p.onAnswer = func() { answered++ }

		v, err := p.askUint("Size: ")
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint64(8)))

		w, err := p.askInt("Value: ")
		Expect(err).NotTo(HaveOccurred())
		Expect(w).To(Equal(int64(-3)))

		_, err = p.ask("More: ")
		Expect(err).To(MatchError(io.EOF))

		Expect(asked).To(Equal(3))
		Expect(answered).To(Equal(2))
		Expect(out.String()).To(Equal("Size: Value: More: \n"))
	})
})
