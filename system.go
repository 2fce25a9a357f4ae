package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

type SysInfo struct {
	Arch     string
	Hostname string
	Platform string
	CPUCount int
	CPUFreq  float64
	RAM      float64
}

func HostStat() SysInfo {
	info := SysInfo{Arch: runtime.GOARCH}
	if hostStat, err := host.Info(); err == nil {
		info.Hostname = hostStat.Hostname
		info.Platform = hostStat.Platform
	}
	if cpuStat, err := cpu.Info(); err == nil && len(cpuStat) > 0 {
		totalFreq := 0.0
		for _, cpu := range cpuStat {
			totalFreq += cpu.Mhz
		}
		info.CPUCount = len(cpuStat)
		info.CPUFreq = totalFreq / float64(len(cpuStat))
	}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		info.RAM = float64(vmStat.Total) / 1024 / 1024 / 1024
	}
	return info
}

func (i SysInfo) Meta() map[string]any {
	return map[string]any{
		"arch":     i.Arch,
		"hostname": i.Hostname,
		"platform": i.Platform,
		"cpu":      i.CPUCount,
		"freq":     i.CPUFreq,
		"ram":      i.RAM,
	}
}

// System wires configuration to the components behind every subcommand.
type System struct {
	config    Config
	connector Connector
	storage   *Storage
	stdout    io.Writer
}

func NewSystem(config Config, stdout io.Writer) *System {
	system := &System{
		config:    config,
		connector: &Clickhouse{Config: config.Clickhouse},
		stdout:    stdout,
	}
	if config.ResultsDbURL != "" {
		system.storage = &Storage{URL: config.ResultsDbURL}
	}
	return system
}

func (s *System) Setup(ctx context.Context) error {
	server := s.config.Clickhouse
	database := server.Database
	server.Database = "default"
	return Setup(ctx, &Clickhouse{Config: server}, database, s.config.Tables)
}

func (s *System) Load(ctx context.Context, targetName string) (int, error) {
	target, err := ResolveTarget(targetName, s.config.Tables)
	if err != nil {
		return 0, err
	}
	var total int
	err = WithSession(ctx, s.connector, func(session Session) error {
		writer, ok := session.(TableWriter)
		if !ok {
			return fmt.Errorf("session %T does not support inserts", session)
		}
		loader := Loader{DataPath: s.config.DataPath, Table: target.Table, Writer: writer}
		loaded, err := loader.Load(ctx)
		total = loaded
		return err
	})
	return total, err
}

func (s *System) LoadDuckDB(ctx context.Context) (int64, error) {
	db, err := OpenDuckDB(s.config.DuckDBPath)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	loader := DuckDBLoader{DataPath: s.config.DataPath, Table: s.config.Tables.Baseline}
	return loader.Load(ctx, db)
}

func (s *System) Bench(ctx context.Context, targetName string) ([]TimingResult, error) {
	target, err := ResolveTarget(targetName, s.config.Tables)
	if err != nil {
		return nil, err
	}

	info := HostStat()
	Logger.Infof("starting %v benchmarking, host stat: %+v", target.Name, info)

	benchmark := Benchmark{
		Warmup:     s.config.Warmup,
		Iterations: s.config.Iterations,
		Connector:  s.connector,
	}
	results, err := benchmark.Run(ctx, target.Queries)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.config.ResultsDir, target.ResultsFile())
	err = WriteCSVFile(path, func(w io.Writer) error {
		return WriteTimingResults(w, s.config.Iterations, results)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write results %v: %w", path, err)
	}
	Logger.Infof("%v benchmarking completed, results saved to %v", target.Name, path)

	if s.storage != nil {
		if err := s.store(ctx, target, info, results); err != nil {
			return nil, fmt.Errorf("failed to store results: %w", err)
		}
	}
	return results, nil
}

func (s *System) store(ctx context.Context, target Target, info SysInfo, results []TimingResult) error {
	db, err := s.storage.ConnectDb()
	if err != nil {
		return err
	}
	defer db.Close()

	run := NewRunID(target.Name)
	meta := info.Meta()
	meta["target"] = target.Name
	meta["iterations"] = s.config.Iterations
	if err := s.storage.InitResultsDb(ctx, db, run, meta); err != nil {
		return err
	}
	return s.storage.UpdateBenchmarkDb(ctx, db, run, target.Name, results)
}

func (s *System) Compare() ([]Comparison, error) {
	baseline, err := ReadTimingFile(filepath.Join(s.config.ResultsDir, Target{Name: TargetBaseline}.ResultsFile()))
	if err != nil {
		return nil, err
	}
	optimized, err := ReadTimingFile(filepath.Join(s.config.ResultsDir, Target{Name: TargetOptimized}.ResultsFile()))
	if err != nil {
		return nil, err
	}
	comparisons, err := Compare(baseline, optimized)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(s.config.ResultsDir, "performance_comparison.csv")
	err = WriteCSVFile(path, func(w io.Writer) error {
		return WriteComparisons(w, comparisons)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write comparison %v: %w", path, err)
	}

	fmt.Fprintln(s.stdout, "Performance Comparison (Baseline vs Optimized):")
	PrintComparisons(s.stdout, comparisons)
	Logger.Infof("performance comparison saved to %v", path)
	return comparisons, nil
}

func (s *System) Validate(ctx context.Context) error {
	validator := Validator{
		View:      s.config.Tables.View,
		Table:     s.config.Tables.Optimized,
		Tolerance: s.config.Tolerance,
		Connector: s.connector,
	}
	mismatches, err := validator.Validate(ctx)
	if err != nil {
		return err
	}
	return Report(s.stdout, mismatches)
}
