package hmmlib

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// EStep runs the forward-backward computation over a batch of independent
// sequences.
type EStep struct {
	cfg    Config
	logger zerolog.Logger
}

// NewEStep returns an EStep using cfg, logging to stderr at cfg.LogLevel.
func NewEStep(cfg Config) *EStep {
	return &EStep{
		cfg:    cfg,
		logger: NewLogger("estep", cfg.LogLevel),
	}
}

// SetLogger replaces the logger used for batch messages.
func (es *EStep) SetLogger(logger zerolog.Logger) {
	es.logger = logger
}

// Warnings counts sequences that need the caller's attention.
type Warnings struct {

	// Sequences whose log-likelihood is -Inf
	ZeroLikelihood int

	// Sequences that returned an error
	Failed int
}

// BatchResult holds the per-sequence posteriors and their reduction.
type BatchResult struct {

	// Posteriors[i] belongs to the i^th input sequence, nil if it failed
	Posteriors []*Posterior

	// Per-sequence log-likelihoods, NaN for failed sequences
	LogLikelihoods []float64

	// Sum of the log-likelihoods of the sequences that did not fail
	LogLikelihood float64

	// Expected counts over the sequences with positive likelihood
	Counts *Counts

	Warnings Warnings
}

// Counts are the posterior-weighted sufficient statistics the M-step uses
// to re-fit the initial-state and transition sub-models.
type Counts struct {

	// Sum over sequences of the state posterior at time 0
	Init []float64

	// Sum over sequences and time points of the state posteriors
	Occupancy []float64

	// Sum over sequences and steps of the pairwise posteriors
	Trans *mat.Dense
}

// Add accumulates the posteriors of one sequence.  Zero-likelihood
// posteriors carry no mass and are skipped.
func (c *Counts) Add(post *Posterior) error {

	if math.IsInf(post.LogLikelihood, -1) {
		return nil
	}

	ntime, nstate := post.LogGamma.Dims()
	if c.Init == nil {
		c.Init = make([]float64, nstate)
		c.Occupancy = make([]float64, nstate)
		c.Trans = mat.NewDense(nstate, nstate, nil)
	} else if len(c.Init) != nstate {
		return shapeErrorf("posterior has %d states, counts have %d", nstate, len(c.Init))
	}

	gamma := ExpDense(post.LogGamma)
	floats.Add(c.Init, gamma.RawRowView(0))
	for t := 0; t < ntime; t++ {
		floats.Add(c.Occupancy, gamma.RawRowView(t))
	}
	for _, leps := range post.LogEpsilon {
		c.Trans.Add(c.Trans, ExpDense(leps))
	}

	return nil
}

// merge adds other into c.
func (c *Counts) merge(other *Counts) error {

	if other.Init == nil {
		return nil
	}
	if c.Init == nil {
		c.Init = make([]float64, len(other.Init))
		c.Occupancy = make([]float64, len(other.Init))
		c.Trans = mat.NewDense(len(other.Init), len(other.Init), nil)
	} else if len(c.Init) != len(other.Init) {
		return shapeErrorf("counts have %d and %d states", len(c.Init), len(other.Init))
	}

	floats.Add(c.Init, other.Init)
	floats.Add(c.Occupancy, other.Occupancy)
	c.Trans.Add(c.Trans, other.Trans)

	return nil
}

// TransProb normalizes the expected transition counts by row, giving the
// stationary transition matrix that maximizes the expected complete-data
// likelihood.  Rows without mass become uniform.
func (c *Counts) TransProb() *mat.Dense {

	if c.Trans == nil {
		return nil
	}

	nstate, _ := c.Trans.Dims()
	tr := mat.DenseCopyOf(c.Trans)
	for st := 0; st < nstate; st++ {
		normalizeSum(tr.RawRowView(st), 1/float64(nstate))
	}

	return tr
}

// InitProb normalizes the expected initial counts.
func (c *Counts) InitProb() []float64 {
	if c.Init == nil {
		return nil
	}
	v := make([]float64, len(c.Init))
	copy(v, c.Init)
	normalizeSum(v, 1/float64(len(v)))
	return v
}

// normalize the values in x to have a sum of 1, or set them all to z if
// there is no mass.
func normalizeSum(x []float64, z float64) {
	scale := floats.Sum(x)
	if scale < 1e-10 {
		fill(x, z)
		return
	}
	floats.Scale(1/scale, x)
}

// Run computes the posteriors of every sequence, using up to
// cfg.Parallelism workers.  Cancellation of ctx is observed between
// sequences only; a cancelled run returns ctx.Err() and no result.
//
// A sequence that fails does not stop the others.  Its error is returned,
// combined with those of any other failures, alongside a result that
// covers the sequences that succeeded.
func (es *EStep) Run(ctx context.Context, seqs []*Sequence) (*BatchResult, error) {

	nworker := es.cfg.Parallelism
	if nworker <= 0 {
		nworker = runtime.GOMAXPROCS(0)
	}
	if nworker > len(seqs) {
		nworker = len(seqs)
	}

	es.logger.Info().Int("sequences", len(seqs)).Int("workers", nworker).Msg("Beginning E-step")

	var bar *progressbar.ProgressBar
	if es.cfg.Progress {
		bar = progressbar.NewOptions(len(seqs), progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("E-step"))
	}

	res := &BatchResult{
		Posteriors:     make([]*Posterior, len(seqs)),
		LogLikelihoods: make([]float64, len(seqs)),
		Counts:         &Counts{},
	}
	errs := make([]error, len(seqs))

	jobs := make(chan int)
	var wg sync.WaitGroup
	var mut sync.Mutex
	var mergeErr error

	for w := 0; w < nworker; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Each worker has its own accumulator, merged once at the end
			local := &Counts{}
			for i := range jobs {
				post, err := es.one(seqs[i])
				if err == nil {
					err = local.Add(post)
				}
				res.Posteriors[i] = post
				errs[i] = err
				if bar != nil {
					_ = bar.Add(1)
				}
			}

			mut.Lock()
			if err := res.Counts.merge(local); err != nil {
				mergeErr = err
			}
			mut.Unlock()
		}()
	}

feed:
	for i := range seqs {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if bar != nil {
		_ = bar.Finish()
	}

	if err := ctx.Err(); err != nil {
		es.logger.Warn().Err(err).Msg("E-step cancelled")
		return nil, err
	}

	var result *multierror.Error
	for i, err := range errs {
		if err != nil {
			es.logger.Error().Err(err).Int("sequence", i).Msg("E-step failed")
			res.Posteriors[i] = nil
			res.LogLikelihoods[i] = math.NaN()
			res.Warnings.Failed++
			result = multierror.Append(result, fmt.Errorf("sequence %d: %w", i, err))
			continue
		}
		llf := res.Posteriors[i].LogLikelihood
		if math.IsInf(llf, -1) {
			es.logger.Warn().Int("sequence", i).Msg("Sequence has zero likelihood")
			res.Warnings.ZeroLikelihood++
		}
		res.LogLikelihoods[i] = llf
		res.LogLikelihood += llf
	}
	if mergeErr != nil {
		result = multierror.Append(result, mergeErr)
	}

	es.logger.Info().Float64("llf", res.LogLikelihood).Int("failed", res.Warnings.Failed).
		Int("zero_likelihood", res.Warnings.ZeroLikelihood).Msg("Finished E-step")

	return res, result.ErrorOrNil()
}

func (es *EStep) one(seq *Sequence) (*Posterior, error) {

	post, err := seq.Posteriors()
	if err != nil {
		return nil, err
	}

	if es.cfg.VerifyTol > 0 {
		if err := post.Verify(es.cfg.VerifyTol); err != nil {
			return nil, err
		}
	}

	return post, nil
}
