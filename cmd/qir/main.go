package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	flags "github.com/jessevdk/go-flags"
	"github.com/massn/envordot"
	"github.com/oklog/run"
	"github.com/tidwall/pretty"

	"github.com/oqtopus-team/oqtopus-qir/common"
	"github.com/oqtopus-team/oqtopus-qir/core"
	"github.com/oqtopus-team/oqtopus-qir/estimation"
	"github.com/oqtopus-team/oqtopus-qir/ir"
	"github.com/oqtopus-team/oqtopus-qir/log"
	"github.com/oqtopus-team/oqtopus-qir/qpu"
	"github.com/oqtopus-team/oqtopus-qir/sampling"
	"github.com/oqtopus-team/oqtopus-qir/scheduler"

	"go.uber.org/dig"
	"go.uber.org/zap"
)

var versionByBuildFlag string
var parser *flags.Parser
var qir *QIR

func init() {
	if err := envordot.Load(false, ".env"); err != nil {
		fmt.Printf("Not found \".env\" file. Use only environment variables. Reason:%s\n", err.Error())
	}
	qir = &QIR{}
	setParser(qir)
}

type QIR struct {
	Conf *core.Conf
}

func setParser(q *QIR) {
	parser = flags.NewParser(q, flags.Default)
	parser.ShortDescription = "qir"
	parser.LongDescription = "run and evaluate quantum circuits on a dummy device."
	parser.AddCommand("evaluate", "evaluate a measurement input",
		"run the circuits of a measurement input and print its expectation values", &evaluateCmd{})
	parser.AddCommand("sample", "sample a circuit",
		"run one circuit and print its registers and counts", &sampleCmd{})
	parser.AddCommand("validate", "validate a circuit",
		"decode a circuit and check its register and measurement invariants", &validateCmd{})
}

func parse() {
	if _, err := parser.Parse(); err != nil {
		code := 1
		if fe, ok := err.(*flags.Error); ok {
			if fe.Type == flags.ErrHelp {
				code = 0
			}
		}
		if code == 1 {
			fmt.Printf("failed to parse flags, because %s\n", err)
		}
		os.Exit(code)
	}
}

func main() {
	parse()
}

type jobOptions struct {
	JobID      string   `long:"job-id" description:"job ID, generated when empty"`
	Shots      int      `long:"shots" description:"shots per measured register" default:"1000"`
	Params     []string `long:"param" description:"symbolic parameter as name=value, repeatable"`
	Mitigation string   `long:"mitigation" description:"readout error mitigation" default:"none" choice:"none" choice:"pseudo_inverse"`
}

func (o *jobOptions) param(jobType, input string) (*core.JobParam, error) {
	params, err := common.ParseParams(o.Params)
	if err != nil {
		return nil, err
	}
	id := o.JobID
	if id == "" {
		id = uuid.New().String()
	}
	p := &core.JobParam{
		JobID:   id,
		Input:   input,
		Shots:   o.Shots,
		Params:  params,
		JobType: jobType,
	}
	if o.Mitigation != "none" {
		p.MitigationInfo = fmt.Sprintf(`{"readout": "%s"}`, o.Mitigation)
	}
	return p, nil
}

type evaluateCmd struct {
	Input string `long:"input" description:"measurement input JSON file" required:"true"`
	jobOptions
}

func (c *evaluateCmd) Execute(args []string) error {
	input, err := common.ReadFile(c.Input)
	if err != nil {
		return err
	}
	p, err := c.param(estimation.ESTIMATION_JOB, input)
	if err != nil {
		return err
	}
	return runJob(qir.Conf, p)
}

type sampleCmd struct {
	Circuit string `long:"circuit" description:"circuit JSON file" required:"true"`
	jobOptions
}

func (c *sampleCmd) Execute(args []string) error {
	input, err := common.ReadFile(c.Circuit)
	if err != nil {
		return err
	}
	p, err := c.param(sampling.SAMPLING_JOB, input)
	if err != nil {
		return err
	}
	return runJob(qir.Conf, p)
}

type validateCmd struct {
	Circuit string `long:"circuit" description:"circuit JSON file" required:"true"`
}

func (c *validateCmd) Execute(args []string) error {
	logger, err := log.SetZap(qir.Conf)
	if err != nil {
		return err
	}
	defer logger.Sync()

	input, err := common.ReadFile(c.Circuit)
	if err != nil {
		return err
	}
	circuit := ir.NewCircuit()
	if err := circuit.UnmarshalJSON([]byte(input)); err != nil {
		zap.L().Error(fmt.Sprintf("failed to decode %s/reason:%s", c.Circuit, err))
		return err
	}
	if err := circuit.Validate(); err != nil {
		zap.L().Error(fmt.Sprintf("invalid circuit %s/reason:%s", c.Circuit, err))
		return err
	}
	summary := fmt.Sprintf(`{"operations": %d, "qubits": %d, "registers": %d, "parametrized": %t}`,
		len(circuit.Operations()), circuit.NumberOfQubits(), len(circuit.Registers()), circuit.IsParametrized())
	fmt.Print(string(pretty.Pretty([]byte(summary))))
	return nil
}

// runJob handles one job on the dummy device and prints its result. An
// interrupt stops waiting for the job.
func runJob(conf *core.Conf, p *core.JobParam) error {
	logger, err := log.SetZap(conf)
	if err != nil {
		fmt.Printf("Failed to setup logger. Reason:%s\n", err)
		return err
	}
	defer logger.Sync()

	core.ResetSetting()
	registerSetting()
	if _, err := os.Stat(conf.SettingPath); err == nil {
		if err := core.ParseSettingFromPath(conf.SettingPath); err != nil {
			zap.L().Error(fmt.Sprintf("failed to parse settings/reason:%s", err))
			return err
		}
	} else {
		zap.L().Debug(fmt.Sprintf("no setting file at %s, using defaults", conf.SettingPath))
	}

	sched := &scheduler.NormalScheduler{}
	s, err := setupSystemComponents(conf, sched)
	if err != nil {
		return err
	}
	defer s.TearDown()

	jm, err := core.NewJobManager(
		&estimation.EstimationJob{},
		&sampling.SamplingJob{},
	)
	if err != nil {
		return err
	}
	if err := s.StartContainer(); err != nil {
		zap.L().Error(fmt.Sprintf("failed to start the scheduler/reason:%s", err))
		return err
	}
	defer sched.Stop()
	core.SetInfo(conf)

	jc, err := core.NewJobContext()
	if err != nil {
		return err
	}
	job, err := jm.NewJobWithValidation(p, jc)
	if err != nil {
		return err
	}
	job.JobData().Status = core.READY
	zap.L().Info(fmt.Sprintf("handling job(%s) of type %s", p.JobID, p.JobType))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var g run.Group
	g.Add(func() error {
		var wg sync.WaitGroup
		wg.Add(1)
		sched.HandleJobWithWaitGroup(job, &wg)
		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}, func(error) {
		cancel()
	})
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))
	if conf.MetricsLogDir != "" {
		m, err := log.NewMetricsLog(conf.MetricsLogDir, time.Duration(conf.MetricsLogPeriod)*time.Second, s)
		if err != nil {
			return err
		}
		g.Add(func() error {
			return m.Run(ctx)
		}, func(error) {
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		var se run.SignalError
		if errors.As(err, &se) {
			zap.L().Info(fmt.Sprintf("stopped waiting for job(%s)/reason:%s", p.JobID, se))
		}
		return err
	}

	jd := job.JobData()
	fmt.Print(jd.Result.ToString())
	if jd.Status != core.SUCCEEDED {
		return fmt.Errorf("job(%s) finished in %s: %s", jd.ID, jd.Status, jd.Result.Message)
	}
	return nil
}

func provideDIContainer(sched *scheduler.NormalScheduler) (*dig.Container, error) {
	c := dig.New()
	if err := c.Provide(func() core.Backend { return &qpu.DummyQPU{} }); err != nil {
		return nil, err
	}
	if err := c.Provide(func() core.Scheduler { return sched }); err != nil {
		return nil, err
	}
	if err := c.Provide(func() core.DBManager { return &core.MemoryDB{} }); err != nil {
		return nil, err
	}
	return c, nil
}

func setupSystemComponents(conf *core.Conf, sched *scheduler.NormalScheduler) (*core.SystemComponents, error) {
	core.SetVersion(conf, versionByBuildFlag)
	container, err := provideDIContainer(sched)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to provide the DI container/reason:%s", err))
		return nil, err
	}
	zap.L().Debug("Setting up System Components")
	s := core.NewSystemComponents(container)
	if err := s.Setup(conf); err != nil {
		zap.L().Error(fmt.Sprintf("failed to set up system components/reason:%s", err))
		return nil, err
	}
	return s, nil
}

func registerSetting() {
	core.RegisterSetting(estimation.ESTIMATION_SETTING_KEY, estimation.NewEstimationSetting())
	core.RegisterSetting("dummy", qpu.NewDummySetting())
}
