// Package analysis provides the shared result types of the Smart Money Concept
// pipeline: detected patterns, trade signals and detection settings.
package analysis

// Direction represents the expected direction of a pattern.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

// Trend represents the overall market structure classification.
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendRanging Trend = "ranging"
)

// Aligned reports whether the trend agrees with d.
func (t Trend) Aligned(d Direction) bool {
	return (t == TrendBullish && d == Bullish) || (t == TrendBearish && d == Bearish)
}

// Opposes reports whether the trend runs against d.
func (t Trend) Opposes(d Direction) bool {
	return (t == TrendBullish && d == Bearish) || (t == TrendBearish && d == Bullish)
}

// PatternKind identifies a pattern variant.
type PatternKind string

const (
	KindOrderBlock PatternKind = "ob"
	KindFVG        PatternKind = "fvg"
	KindBOS        PatternKind = "bos"
	KindCHoCH      PatternKind = "choch"
	KindLiquidity  PatternKind = "liquidity"
)

// Pattern is implemented only by OrderBlock, FairValueGap, StructureBreak and
// LiquidityZone. Consumers switch on the concrete type.
type Pattern interface {
	PatternKind() PatternKind
	PatternID() string
	isPattern()
}

// BlockStatus is the lifecycle state of an order block.
type BlockStatus string

const (
	BlockActive    BlockStatus = "active"
	BlockMitigated BlockStatus = "mitigated"
	BlockExpired   BlockStatus = "expired"
)

// OrderBlock represents the last opposing candle before an impulsive move.
type OrderBlock struct {
	ID        string      `json:"id"`
	Direction Direction   `json:"direction"`
	StartTime int64       `json:"startTime"`
	EndTime   int64       `json:"endTime"`
	Top       float64     `json:"top"`
	Bottom    float64     `json:"bottom"`
	Status    BlockStatus `json:"status"`
	Strength  int         `json:"strength"`
	HasFVG    bool        `json:"hasFVG"`
	Index     int         `json:"index"` // index of the impulse candle
}

func (OrderBlock) PatternKind() PatternKind { return KindOrderBlock }
func (o OrderBlock) PatternID() string      { return o.ID }
func (OrderBlock) isPattern()               {}

// FairValueGap represents a three-candle price imbalance.
type FairValueGap struct {
	ID             string    `json:"id"`
	Direction      Direction `json:"direction"`
	Time           int64     `json:"time"`
	Top            float64   `json:"top"`
	Bottom         float64   `json:"bottom"`
	Filled         bool      `json:"filled"`
	FillPercentage float64   `json:"fillPercentage"`
	Index          int       `json:"index"` // index of the third candle
}

func (FairValueGap) PatternKind() PatternKind { return KindFVG }
func (f FairValueGap) PatternID() string      { return f.ID }
func (FairValueGap) isPattern()               {}

// BreakKind separates trend continuation from trend reversal.
type BreakKind string

const (
	BreakBOS   BreakKind = "bos"
	BreakCHoCH BreakKind = "choch"
)

// StructureBreak represents a break of structure or change of character.
type StructureBreak struct {
	ID          string    `json:"id"`
	Kind        BreakKind `json:"type"`
	Direction   Direction `json:"direction"`
	Time        int64     `json:"time"`
	Price       float64   `json:"price"`
	BrokenLevel float64   `json:"brokenLevel"`
	Index       int       `json:"index"`
}

func (s StructureBreak) PatternKind() PatternKind {
	if s.Kind == BreakCHoCH {
		return KindCHoCH
	}
	return KindBOS
}
func (s StructureBreak) PatternID() string { return s.ID }
func (StructureBreak) isPattern()          {}

// LiquiditySide tells where resting orders are presumed to sit.
type LiquiditySide string

const (
	BuySide  LiquiditySide = "buy"  // below equal lows
	SellSide LiquiditySide = "sell" // above equal highs
)

// LiquidityZone represents a price level touched repeatedly.
type LiquidityZone struct {
	ID        string        `json:"id"`
	Side      LiquiditySide `json:"side"`
	Price     float64       `json:"price"`
	StartTime int64         `json:"startTime"`
	EndTime   int64         `json:"endTime"`
	Touches   int           `json:"touches"`
	Swept     bool          `json:"swept"`
}

func (LiquidityZone) PatternKind() PatternKind { return KindLiquidity }
func (l LiquidityZone) PatternID() string      { return l.ID }
func (LiquidityZone) isPattern()               {}

// SignalDirection is the side of a trade signal.
type SignalDirection string

const (
	Long  SignalDirection = "LONG"
	Short SignalDirection = "SHORT"
)

// Direction maps the signal side onto the pattern direction it trades with.
func (d SignalDirection) Direction() Direction {
	if d == Short {
		return Bearish
	}
	return Bullish
}

// TradeSignal is a scored trade idea. It is never mutated after creation.
type TradeSignal struct {
	ID          string          `json:"id"`
	Direction   SignalDirection `json:"direction"`
	Entry       float64         `json:"entry"`
	StopLoss    float64         `json:"stopLoss"`
	TakeProfit1 float64         `json:"takeProfit1"`
	TakeProfit2 float64         `json:"takeProfit2"`
	TakeProfit3 float64         `json:"takeProfit3"`
	RiskReward  float64         `json:"riskReward"`
	Confidence  int             `json:"confidence"`
	Reasons     []string        `json:"reasons"`
	Timestamp   int64           `json:"timestamp"`
	Patterns    []Pattern       `json:"patterns"`
}

// Analysis bundles every detector output for one run.
type Analysis struct {
	OrderBlocks  []OrderBlock     `json:"orderBlocks"`
	FVGs         []FairValueGap   `json:"fvgs"`
	Structure    []StructureBreak `json:"structure"`
	Liquidity    []LiquidityZone  `json:"liquidity"`
	Trend        Trend            `json:"trend"`
	ATR          float64          `json:"atr"`
	CurrentPrice float64          `json:"currentPrice"`
	Signals      []TradeSignal    `json:"signals"`
}

// Empty returns an analysis with no detections and a ranging trend.
func Empty() *Analysis {
	return &Analysis{
		OrderBlocks: []OrderBlock{},
		FVGs:        []FairValueGap{},
		Structure:   []StructureBreak{},
		Liquidity:   []LiquidityZone{},
		Trend:       TrendRanging,
		Signals:     []TradeSignal{},
	}
}
