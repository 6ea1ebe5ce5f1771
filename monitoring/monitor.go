// Package monitoring serves the state of a running plant over HTTP.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/carline/id"
	"github.com/sarchlab/carline/simulation"
	"github.com/sarchlab/carline/timing"
	"github.com/sarchlab/carline/vehicle"
)

// Plant is the part of a simulation the monitor reads.
type Plant interface {
	Now() timing.DateTime
	Snapshot() simulation.Snapshot
	DescribeLine(name string) (simulation.LineSnapshot, error)
	EligibleBatches() []vehicle.Specification
	TimeToFinish(lineName string, orderNumbers ...int) (timing.DateTime, error)
}

// Monitor turns a plant into a server that can be watched from outside.
type Monitor struct {
	plant      Plant
	portNumber int
	ids        id.Generator
	logger     *slog.Logger

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		ids:    id.NewXIDGenerator(),
		logger: slog.Default(),
	}
}

// RegisterPlant registers the plant to be monitored.
func (m *Monitor) RegisterPlant(p Plant) {
	m.plant = p
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		m.logger.Warn("monitor port not allowed, using a random port instead",
			"port", portNumber)

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithLogger sets the logger.
func (m *Monitor) WithLogger(l *slog.Logger) *Monitor {
	m.logger = l
	return m
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.ids.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the list of bars.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/lines", m.listLines)
	r.HandleFunc("/api/line/{name}", m.lineDetails)
	r.HandleFunc("/api/orders", m.listOrders)
	r.HandleFunc("/api/batches", m.listBatches)
	r.HandleFunc("/api/forecast/{line}", m.forecast)
	r.HandleFunc("/api/snapshot", m.snapshot)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts serving in the background and returns the URL of the
// server. With openBrowser, the URL is also opened in a browser.
func (m *Monitor) StartServer(openBrowser bool) (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	go func() {
		err := http.Serve(listener, m.Router())
		if err != nil && !errors.Is(err, net.ErrClosed) {
			m.logger.Error("monitor stopped", "error", err)
		}
	}()

	if openBrowser {
		if err := browser.OpenURL(url); err != nil {
			m.logger.Warn("cannot open browser", "error", err)
		}
	}

	return url, nil
}

type nowRsp struct {
	Now     string `json:"now"`
	Minutes int    `json:"minutes"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := m.plant.Now()

	m.writeJSON(w, nowRsp{Now: now.String(), Minutes: now.InMinutes()})
}

type lineRsp struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

func (m *Monitor) listLines(w http.ResponseWriter, _ *http.Request) {
	snap := m.plant.Snapshot()

	rsp := make([]lineRsp, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		rsp = append(rsp, lineRsp{Name: l.Name, State: l.State})
	}

	m.writeJSON(w, rsp)
}

func (m *Monitor) lineDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	desc, err := m.plant.DescribeLine(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(&desc)
	serializer.SetMaxDepth(3)

	if err := serializer.Serialize(w); err != nil {
		m.logger.Error("cannot serialize line", "line", name, "error", err)
	}
}

func (m *Monitor) listOrders(w http.ResponseWriter, _ *http.Request) {
	pending := m.plant.Snapshot().Pending
	if pending == nil {
		pending = []simulation.OrderSnapshot{}
	}

	m.writeJSON(w, pending)
}

func (m *Monitor) listBatches(w http.ResponseWriter, _ *http.Request) {
	batches := m.plant.EligibleBatches()

	rsp := make([]string, 0, len(batches))
	for _, spec := range batches {
		rsp = append(rsp, spec.String())
	}

	m.writeJSON(w, rsp)
}

type forecastRsp struct {
	Line         string `json:"line"`
	Orders       []int  `json:"orders"`
	TimeToFinish string `json:"time_to_finish"`
	Minutes      int    `json:"minutes"`
}

func (m *Monitor) forecast(w http.ResponseWriter, r *http.Request) {
	lineName := mux.Vars(r)["line"]

	numbers, err := parseOrderNumbers(r.URL.Query().Get("orders"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	d, err := m.plant.TimeToFinish(lineName, numbers...)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.writeJSON(w, forecastRsp{
		Line:         lineName,
		Orders:       numbers,
		TimeToFinish: d.String(),
		Minutes:      d.InMinutes(),
	})
}

func parseOrderNumbers(s string) ([]int, error) {
	numbers := []int{}
	if s == "" {
		return numbers, nil
	}

	for _, field := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("invalid order number %q", field)
		}

		numbers = append(numbers, n)
	}

	return numbers, nil
}

func (m *Monitor) snapshot(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, m.plant.Snapshot())
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.report())
	}
	m.progressBarsLock.Unlock()

	m.writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()

	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memorySize, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	if err := pprof.StartCPUProfile(buf); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.writeJSON(w, prof)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, err := w.Write(data); err != nil {
		m.logger.Debug("cannot write response", "error", err)
	}
}
