// Package monitoring turns a running line into a web server for external
// observation and control.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sortlab/sortline/plant"
	"github.com/sortlab/sortline/sim"
)

// Monitor serves the state of a plant and controls its tick runner over
// HTTP.
type Monitor struct {
	plant      *plant.Plant
	runner     *sim.TickRunner
	buffers    []sim.Buffer
	portNumber int

	openBrowser bool

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor page in a local browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterPlant registers the plant to be monitored.
func (m *Monitor) RegisterPlant(p *plant.Plant) {
	m.plant = p
	m.buffers = append(m.buffers, p.Buffers()...)
}

// RegisterRunner registers the tick runner that drives the plant.
func (m *Monitor) RegisterRunner(r *sim.TickRunner) {
	m.runner = r
}

// StartServer starts the monitor as a web server filling a custom port if
// wanted.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseRunner)
	r.HandleFunc("/api/continue", m.continueRunner)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/snapshot", m.snapshot)
	r.HandleFunc("/api/mode/{mode}", m.setMode)
	r.HandleFunc("/api/arm/{station}", m.armStation)
	r.HandleFunc("/api/hang", m.pickAndHang)
	r.HandleFunc("/api/state", m.state)
	r.HandleFunc("/api/buffers", m.listBuffers)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring line with %s\n", url)

	if m.openBrowser {
		_ = browser.OpenURL(url + "/api/snapshot")
	}

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

func (m *Monitor) pauseRunner(w http.ResponseWriter, _ *http.Request) {
	m.runner.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueRunner(w http.ResponseWriter, _ *http.Request) {
	m.runner.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"now\":%.10f}", m.runner.CurrentTime())
}

func (m *Monitor) snapshot(w http.ResponseWriter, _ *http.Request) {
	bytes, err := json.Marshal(m.plant.Snapshot())
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) setMode(w http.ResponseWriter, r *http.Request) {
	mode, ok := plant.ParseMode(mux.Vars(r)["mode"])
	if !ok {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Unknown mode %s", mux.Vars(r)["mode"])
		return
	}

	m.plant.SetMode(mode)
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) armStation(w http.ResponseWriter, r *http.Request) {
	station, err := strconv.Atoi(mux.Vars(r)["station"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Invalid station %s", mux.Vars(r)["station"])
		return
	}

	m.plant.ArmStation(station)
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) pickAndHang(w http.ResponseWriter, _ *http.Request) {
	m.plant.PickAndHang()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) state(w http.ResponseWriter, _ *http.Request) {
	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.plant.Snapshot())
	serializer.SetMaxDepth(2)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

func bufferPercent(b sim.Buffer) float64 {
	return float64(b.Size()) / float64(b.Capacity())
}

func (m *Monitor) listBuffers(w http.ResponseWriter, _ *http.Request) {
	sorted := make([]sim.Buffer, len(m.buffers))
	copy(sorted, m.buffers)

	sort.Slice(sorted, func(i, j int) bool {
		return bufferPercent(sorted[i]) > bufferPercent(sorted[j])
	})

	fmt.Fprint(w, "[")
	for i, b := range sorted {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "{\"buffer\":\"%s\",\"level\":%d,\"cap\":%d}",
			b.Name(), b.Size(), b.Capacity())
	}
	fmt.Fprint(w, "]")
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bytes, err := json.Marshal(m.progressBars)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memorySize, err := proc.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
