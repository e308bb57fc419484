package analysis

// Pricing is USD per million tokens.
type Pricing struct {
	Input       float64
	Output      float64
	BatchInput  float64
	BatchOutput float64
}

// DefaultPricing is gpt-4o-mini list pricing.
var DefaultPricing = Pricing{
	Input:       0.150,
	Output:      0.600,
	BatchInput:  0.075,
	BatchOutput: 0.300,
}

// Cost is the estimated spend for one interaction.
type Cost struct {
	Input       float64
	Output      float64
	BatchInput  float64
	BatchOutput float64
}

func (c Cost) Total() float64      { return c.Input + c.Output }
func (c Cost) BatchTotal() float64 { return c.BatchInput + c.BatchOutput }

func (p Pricing) Cost(m Metric) Cost {
	in, out := float64(m.PromptTokens), float64(m.CompletionTokens)
	return Cost{
		Input:       in * p.Input / 1_000_000,
		Output:      out * p.Output / 1_000_000,
		BatchInput:  in * p.BatchInput / 1_000_000,
		BatchOutput: out * p.BatchOutput / 1_000_000,
	}
}

// Summary aggregates complete metrics.
type Summary struct {
	Interactions     int
	Complete         int
	TotalTokens      int
	MeanTokens       float64
	MeanProcessingMS float64
	MeanImageKB      float64
	TotalCost        float64
	TotalBatchCost   float64
}

func Summarize(metrics []Metric, p Pricing) Summary {
	s := Summary{Interactions: len(metrics)}
	var ms, kb float64
	for _, m := range metrics {
		if !m.Complete() {
			continue
		}
		s.Complete++
		s.TotalTokens += m.TotalTokens
		ms += float64(m.ProcessingMS)
		kb += m.ImageSizeKB()
		c := p.Cost(m)
		s.TotalCost += c.Total()
		s.TotalBatchCost += c.BatchTotal()
	}
	if s.Complete > 0 {
		n := float64(s.Complete)
		s.MeanTokens = float64(s.TotalTokens) / n
		s.MeanProcessingMS = ms / n
		s.MeanImageKB = kb / n
	}
	return s
}
