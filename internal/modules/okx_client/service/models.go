package service

type instrumentDTO struct {
	InstID    string `json:"instId"`
	TickSz    string `json:"tickSz"`
	LotSz     string `json:"lotSz"`
	MinSz     string `json:"minSz"`
	CtVal     string `json:"ctVal"`
	CtMult    string `json:"ctMult"`
	State     string `json:"state"`
	MaxMktSz  string `json:"maxMktSz"`
	MaxLmtSz  string `json:"maxLmtSz"`
	Lever     string `json:"lever"`
	CtType    string `json:"ctType"`
	SettleCcy string `json:"settleCcy"`
	CtValCcy  string `json:"ctValCcy"`
}

type tickerDTO struct {
	InstID    string `json:"instId"`
	Last      string `json:"last"`
	Open24h   string `json:"open24h"`
	High24h   string `json:"high24h"`
	Low24h    string `json:"low24h"`
	VolCcy24h string `json:"volCcy24h"`
	BidPx     string `json:"bidPx"`
	AskPx     string `json:"askPx"`
	Ts        string `json:"ts"`
}

type bookDTO struct {
	Asks [][]string `json:"asks"`
	Bids [][]string `json:"bids"`
}

type fundingDTO struct {
	InstID      string `json:"instId"`
	FundingRate string `json:"fundingRate"`
	Premium     string `json:"premium"`
}

type balanceDTO struct {
	TotalEq string `json:"totalEq"`
	Details []struct {
		Ccy      string `json:"ccy"`
		AvailBal string `json:"availBal"`
		Eq       string `json:"eq"`
	} `json:"details"`
}

type positionDTO struct {
	InstID      string `json:"instId"`
	InstType    string `json:"instType"`
	PosSide     string `json:"posSide"`
	Pos         string `json:"pos"`
	AvgPx       string `json:"avgPx"`
	MarkPx      string `json:"markPx"`
	Margin      string `json:"margin"`
	Imr         string `json:"imr"`
	Lever       string `json:"lever"`
	NotionalUsd string `json:"notionalUsd"`
	MgnMode     string `json:"mgnMode"`
}

type orderDTO struct {
	OrdID     string `json:"ordId"`
	ClOrdID   string `json:"clOrdId"`
	InstID    string `json:"instId"`
	State     string `json:"state"`
	Side      string `json:"side"`
	PosSide   string `json:"posSide"`
	Sz        string `json:"sz"`
	AccFillSz string `json:"accFillSz"`
	Px        string `json:"px"`
	AvgPx     string `json:"avgPx"`
	Lever     string `json:"lever"`
	CTime     string `json:"cTime"`
}

type orderAckDTO struct {
	OrdID   string `json:"ordId"`
	ClOrdID string `json:"clOrdId"`
	SCode   string `json:"sCode"`
	SMsg    string `json:"sMsg"`
}

type placeOrderBody struct {
	InstID     string `json:"instId"`
	TdMode     string `json:"tdMode"`
	ClOrdID    string `json:"clOrdId,omitempty"`
	Side       string `json:"side"`
	PosSide    string `json:"posSide,omitempty"`
	OrdType    string `json:"ordType"`
	Sz         string `json:"sz"`
	Px         string `json:"px,omitempty"`
	ReduceOnly bool   `json:"reduceOnly,omitempty"`
}
