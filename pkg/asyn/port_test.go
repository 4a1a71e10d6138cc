package asyn

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/record"
)

// ---------------------------------------------------------------------------
// stubHandler
// ---------------------------------------------------------------------------

type stubHandler struct{ mock.Mock }

func (h *stubHandler) ReadInt32(addr, index int) (int32, error) {
	ret := h.Called(addr, index)
	return ret.Get(0).(int32), ret.Error(1)
}
func (h *stubHandler) WriteInt32(addr, index int, v int32) error {
	return h.Called(addr, index, v).Error(0)
}
func (h *stubHandler) ReadUInt32Digital(addr, index int, mask uint32) (uint32, error) {
	ret := h.Called(addr, index, mask)
	return ret.Get(0).(uint32), ret.Error(1)
}
func (h *stubHandler) WriteUInt32Digital(addr, index int, v, mask uint32) error {
	return h.Called(addr, index, v, mask).Error(0)
}
func (h *stubHandler) ReadInt32Array(addr, index int, dst []int32) (int, error) {
	ret := h.Called(addr, index, dst)
	return ret.Int(0), ret.Error(1)
}
func (h *stubHandler) WriteInt32Array(addr, index int, src []int32) error {
	return h.Called(addr, index, src).Error(0)
}
func (h *stubHandler) ReadOctet(addr, index int, dst []byte) (int, error) {
	ret := h.Called(addr, index, dst)
	return ret.Int(0), ret.Error(1)
}
func (h *stubHandler) WriteOctet(addr, index int, src []byte) error {
	return h.Called(addr, index, src).Error(0)
}
func (h *stubHandler) ReadFloat64Array(addr, index int, dst []float64) (int, error) {
	ret := h.Called(addr, index, dst)
	return ret.Int(0), ret.Error(1)
}
func (h *stubHandler) WriteFloat64Array(addr, index int, src []float64) error {
	return h.Called(addr, index, src).Error(0)
}

func TestParseParams(t *testing.T) {
	got, err := ParseParams(`PORT=P1,ADDR=1,P=TST,R=A:Gain:St,PARAM=Gain_RW_0,DESC="gain, in dB",N=4`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"PORT":  "P1",
		"ADDR":  "1",
		"P":     "TST",
		"R":     "A:Gain:St",
		"PARAM": "Gain_RW_0",
		"DESC":  "gain, in dB",
		"N":     "4",
	}, got)

	got, err = ParseParams(`ZRST=,ZRVL=`)
	require.NoError(t, err)
	assert.Equal(t, "", got["ZRST"])

	tests := []string{`PORT`, `=x`, `DESC="open`, `DESC="a"b`}
	for _, s := range tests {
		if _, err := ParseParams(s); !errors.Is(err, ErrBadParams) {
			t.Errorf("ParseParams(%q) error = %v, want ErrBadParams", s, err)
		}
	}
}

func TestCreateParam(t *testing.T) {
	p := NewPort("P1", 4)

	i, err := p.CreateParam(1, "Gain_RW_0", record.ParamInt32)
	require.NoError(t, err)
	assert.Equal(t, 0, i)
	i, err = p.CreateParam(1, "Mode_RW_1", record.ParamUInt32Digital)
	require.NoError(t, err)
	assert.Equal(t, 1, i)
	i, err = p.CreateParam(0, "Version_RO_0", record.ParamInt32)
	require.NoError(t, err)
	assert.Equal(t, 0, i)

	_, err = p.CreateParam(1, "Gain_RW_0", record.ParamInt32)
	assert.ErrorIs(t, err, ErrDuplicate)
	_, err = p.CreateParam(4, "X", record.ParamInt32)
	assert.ErrorIs(t, err, ErrAddress)

	idx, ok := p.FindParam(1, "Mode_RW_1")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	_, ok = p.FindParam(0, "Mode_RW_1")
	assert.False(t, ok)
	assert.Equal(t, 2, p.NumParams(1))
}

func TestLoadRecord(t *testing.T) {
	p := NewPort("P1", 4)
	_, err := p.CreateParam(0, "Version_RO_0", record.ParamInt32)
	require.NoError(t, err)

	params := `PORT=P1,ADDR=0,P=TST,R=A:Version:Rd,PARAM=Version_RO_0,DESC="fw"`
	require.NoError(t, p.LoadRecord(record.TemplateAI, params))

	rec, ok := p.Record("TST:A:Version:Rd")
	require.True(t, ok)
	assert.Equal(t, "fw", rec.Field("DESC"))
	assert.Equal(t, record.TemplateAI, rec.Template)
	assert.False(t, rec.Writable())

	assert.ErrorIs(t, p.LoadRecord(record.TemplateAI, params), ErrDuplicate)
	assert.ErrorIs(t, p.LoadRecord(record.TemplateAI, strings.Replace(params, "PORT=P1", "PORT=P2", 1)), ErrWrongPort)
	assert.ErrorIs(t, p.LoadRecord(record.TemplateAI, strings.Replace(params, "Version_RO_0", "Nope", 1)), ErrNoParam)
	assert.ErrorIs(t, p.LoadRecord(record.TemplateAI, `PORT=P1,ADDR=x,P=T,R=N,PARAM=Version_RO_0`), ErrBadParams)
	assert.ErrorIs(t, p.LoadRecord(record.TemplateAI, `PORT=P1,ADDR=0,R=N,PARAM=Version_RO_0`), ErrBadParams)
}

func TestRecordsPatternAndDatabase(t *testing.T) {
	p := NewPort("P1", 4)
	for _, n := range []string{"A_RO_0", "B_RO_1"} {
		_, err := p.CreateParam(0, n, record.ParamInt32)
		require.NoError(t, err)
	}
	require.NoError(t, p.LoadRecord("ai", `PORT=P1,ADDR=0,P=TST,R=C:A:Rd,PARAM=A_RO_0,DESC=""`))
	require.NoError(t, p.LoadRecord("ai", `PORT=P1,ADDR=0,P=TST,R=B0:B:Rd,PARAM=B_RO_1,DESC=""`))

	assert.Len(t, p.Records(""), 2)
	got := p.Records("TST:C:*")
	require.Len(t, got, 1)
	assert.Equal(t, "TST:C:A:Rd", got[0].Name)

	var buf bytes.Buffer
	require.NoError(t, p.WriteDatabase(&buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], `dbLoadRecords("db/ai.template", "PORT=P1,ADDR=0`), lines[0])
}

func newMenuPort(t *testing.T) *Port {
	t.Helper()
	p := NewPort("P1", 4)
	_, err := p.CreateParam(1, "Mode_RW_0", record.ParamUInt32Digital)
	require.NoError(t, err)
	require.NoError(t, p.LoadRecord(record.TemplateMBBO,
		`PORT=P1,ADDR=1,P=TST,R=Mode:St,PARAM=Mode_RW_0,DESC="",MASK=3,NOBT=2,ZRST=Off,ZRVL=0,ONST=On,ONVL=1,TWST=,TWVL=`))
	return p
}

func TestGetPutMenu(t *testing.T) {
	p := newMenuPort(t)
	h := &stubHandler{}
	p.SetHandler(h)

	rec, _ := p.Record("TST:Mode:St")
	assert.Equal(t, []MenuChoice{{Label: "Off", Value: 0}, {Label: "On", Value: 1}}, rec.Menu())
	assert.Equal(t, uint32(3), rec.Mask())

	h.On("ReadUInt32Digital", 1, 0, uint32(3)).Return(uint32(1), nil).Once()
	v, err := p.Get("TST:Mode:St")
	require.NoError(t, err)
	assert.Equal(t, "On", v)

	h.On("ReadUInt32Digital", 1, 0, uint32(3)).Return(uint32(2), nil).Once()
	v, err = p.Get("TST:Mode:St")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	h.On("WriteUInt32Digital", 1, 0, uint32(0), uint32(3)).Return(nil).Once()
	require.NoError(t, p.Put("TST:Mode:St", "Off"))
	h.On("WriteUInt32Digital", 1, 0, uint32(1), uint32(3)).Return(nil).Once()
	require.NoError(t, p.Put("TST:Mode:St", "1"))
	assert.ErrorIs(t, p.Put("TST:Mode:St", "Sideways"), ErrBadValue)

	h.AssertExpectations(t)
}

func TestGetPutScalarAndArrays(t *testing.T) {
	p := NewPort("P1", 4)
	for _, c := range []struct {
		addr int
		name string
		typ  record.ParamType
	}{
		{1, "Gain_RW_0", record.ParamInt32},
		{1, "Words_RW_1", record.ParamInt32Array},
		{0, "Bytes_RO_0", record.ParamOctet},
	} {
		_, err := p.CreateParam(c.addr, c.name, c.typ)
		require.NoError(t, err)
	}
	require.NoError(t, p.LoadRecord(record.TemplateAO, `PORT=P1,ADDR=1,P=TST,R=Gain:St,PARAM=Gain_RW_0,DESC=""`))
	require.NoError(t, p.LoadRecord(record.TemplateWaveformOut, `PORT=P1,ADDR=1,P=TST,R=Words:St,PARAM=Words_RW_1,DESC="",N=3`))
	require.NoError(t, p.LoadRecord(record.TemplateWaveform8In, `PORT=P1,ADDR=0,P=TST,R=Bytes:Rd,PARAM=Bytes_RO_0,DESC="",N=2`))

	h := &stubHandler{}
	p.SetHandler(h)

	h.On("WriteInt32", 1, 0, int32(0x10)).Return(nil).Once()
	require.NoError(t, p.Put("TST:Gain:St", "0x10"))
	assert.ErrorIs(t, p.Put("TST:Gain:St", "ten"), ErrBadValue)

	h.On("WriteInt32Array", 1, 1, []int32{1, -2, 3}).Return(nil).Once()
	require.NoError(t, p.Put("TST:Words:St", "1 -2 3"))

	h.On("ReadInt32Array", 1, 1, mock.Anything).Run(func(args mock.Arguments) {
		copy(args.Get(2).([]int32), []int32{7, 8, 9})
	}).Return(3, nil).Once()
	v, err := p.Get("TST:Words:St")
	require.NoError(t, err)
	assert.Equal(t, "7 8 9", v)

	h.On("ReadOctet", 0, 0, mock.Anything).Run(func(args mock.Arguments) {
		copy(args.Get(2).([]byte), []byte{0xAB, 0x01})
	}).Return(2, nil).Once()
	v, err = p.Get("TST:Bytes:Rd")
	require.NoError(t, err)
	assert.Equal(t, "171 1", v)

	assert.ErrorIs(t, p.Put("TST:Bytes:Rd", "1"), ErrReadOnly)
	_, err = p.Get("TST:Nope")
	assert.ErrorIs(t, err, ErrNoRecord)

	h.AssertExpectations(t)
}

func TestGetHandlerError(t *testing.T) {
	p := NewPort("P1", 4)
	_, err := p.CreateParam(0, "V_RO_0", record.ParamInt32)
	require.NoError(t, err)
	require.NoError(t, p.LoadRecord(record.TemplateAI, `PORT=P1,ADDR=0,P=TST,R=V:Rd,PARAM=V_RO_0,DESC=""`))

	_, err = p.Get("TST:V:Rd")
	assert.ErrorIs(t, err, ErrNoHandler)

	h := &stubHandler{}
	p.SetHandler(h)
	boom := errors.New("bus error")
	h.On("ReadInt32", 0, 0).Return(int32(0), boom).Once()
	_, err = p.Get("TST:V:Rd")
	assert.ErrorIs(t, err, boom)
}

func TestStreamRecordsServePublishedArray(t *testing.T) {
	p := NewPort("P1", 4)
	_, err := p.CreateParam(3, "Stream0_STM16_0", record.ParamInt16Array)
	require.NoError(t, err)
	_, err = p.CreateParam(3, "Stream0_STM32_0", record.ParamInt32Array)
	require.NoError(t, err)
	require.NoError(t, p.LoadRecord(record.TemplateStream16, `PORT=P1,ADDR=3,P=TST,R=Stream0:16,PARAM=Stream0_STM16_0,DESC=""`))
	require.NoError(t, p.LoadRecord(record.TemplateStream32, `PORT=P1,ADDR=3,P=TST,R=Stream0:32,PARAM=Stream0_STM32_0,DESC=""`))

	_, err = p.Get("TST:Stream0:16")
	assert.ErrorIs(t, err, ErrNoValue)

	src := []int16{1, -1}
	p.DoCallbacksInt16Array(3, 0, src)
	p.DoCallbacksInt32Array(3, 1, []int32{65536})
	src[0] = 99

	v, err := p.Get("TST:Stream0:16")
	require.NoError(t, err)
	assert.Equal(t, "1 -1", v)
	v, err = p.Get("TST:Stream0:32")
	require.NoError(t, err)
	assert.Equal(t, "65536", v)
	assert.ErrorIs(t, p.Put("TST:Stream0:32", "1"), ErrReadOnly)
}
