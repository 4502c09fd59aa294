package scenario

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/yuuri3/TokiPonaLanguages/internal/phonetics"
	"github.com/yuuri3/TokiPonaLanguages/internal/random"
)

const scenarioTypeName = "scenario"

// LoadFile runs the script at path and returns the Scenario it builds.
func LoadFile(path string) (*Scenario, error) {
	state := newState()
	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	sc, err := run(state)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(sc.Name) == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if sc.Dir == "" {
		sc.Dir = filepath.Dir(path)
	}
	return sc, nil
}

// LoadString runs source as a script. Relative paths resolve against dir.
func LoadString(source, dir string) (*Scenario, error) {
	state := newState()
	if err := lua.LoadString(state, source); err != nil {
		return nil, fmt.Errorf("load lua: %w", err)
	}
	sc, err := run(state)
	if err != nil {
		return nil, err
	}
	if sc.Dir == "" {
		sc.Dir = dir
	}
	return sc, nil
}

func newState() *lua.State {
	state := lua.NewState()
	lua.OpenLibraries(state)
	registerScenarioType(state)
	registerScenarioConstructor(state)
	registerPhoneticsHelpers(state)
	return state
}

func run(state *lua.State) (*Scenario, error) {
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run lua: %w", err)
	}
	if state.TypeOf(-1) != lua.TypeUserData {
		state.Pop(1)
		return nil, fmt.Errorf("scenario script must return Scenario")
	}
	ud := state.ToUserData(-1)
	state.Pop(1)
	sc, ok := ud.(*Scenario)
	if !ok || sc == nil {
		return nil, fmt.Errorf("scenario script returned invalid Scenario")
	}
	return sc, nil
}

func registerScenarioType(state *lua.State) {
	lua.NewMetaTable(state, scenarioTypeName)
	state.NewTable()
	lua.SetFunctions(state, scenarioMethods, 0)
	state.SetField(-2, "__index")
	state.Pop(1)
}

func registerScenarioConstructor(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, scenarioConstructor, 0)
	state.SetGlobal("Scenario")
}

func registerPhoneticsHelpers(state *lua.State) {
	state.NewTable()
	lua.SetFunctions(state, phoneticsHelpers, 0)
	state.SetGlobal("Phonetics")
}

var scenarioConstructor = []lua.RegistryFunction{
	{Name: "new", Function: scenarioNew},
}

var phoneticsHelpers = []lua.RegistryFunction{
	{Name: "random_words", Function: randomWords},
}

var scenarioMethods = []lua.RegistryFunction{
	{Name: "proto", Function: scenarioProto},
	{Name: "proto_file", Function: scenarioProtoFile},
	{Name: "phonemes", Function: scenarioPhonemes},
	{Name: "phonemes_file", Function: scenarioPhonemesFile},
	{Name: "grid", Function: scenarioGrid},
	{Name: "grid_file", Function: scenarioGridFile},
	{Name: "seed_location", Function: scenarioSeedLocation},
	{Name: "params", Function: scenarioParams},
	{Name: "seed", Function: scenarioSeed},
	{Name: "max_eras", Function: scenarioMaxEras},
	{Name: "output", Function: scenarioOutput},
	{Name: "dump", Function: scenarioDump},
	{Name: "expect", Function: scenarioExpect},
}

func scenarioNew(state *lua.State) int {
	name := lua.OptString(state, 1, "")
	state.PushUserData(&Scenario{Name: name, Params: map[string]string{}})
	lua.SetMetaTableNamed(state, scenarioTypeName)
	return 1
}

func checkScenario(state *lua.State) *Scenario {
	ud := lua.CheckUserData(state, 1, scenarioTypeName)
	if sc, ok := ud.(*Scenario); ok && sc != nil {
		return sc
	}
	lua.ArgumentError(state, 1, "scenario expected")
	return nil
}

func scenarioProto(state *lua.State) int {
	sc := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	sc.Proto = stringList(state, 2)
	return 0
}

func scenarioProtoFile(state *lua.State) int {
	sc := checkScenario(state)
	sc.ProtoFile = lua.CheckString(state, 2)
	return 0
}

func scenarioPhonemes(state *lua.State) int {
	sc := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	sc.Phonemes = stringRows(state, 2)
	return 0
}

func scenarioPhonemesFile(state *lua.State) int {
	sc := checkScenario(state)
	sc.PhonemesFile = lua.CheckString(state, 2)
	return 0
}

func scenarioGrid(state *lua.State) int {
	sc := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	sc.Grid = stringRows(state, 2)
	return 0
}

func scenarioGridFile(state *lua.State) int {
	sc := checkScenario(state)
	sc.GridFile = lua.CheckString(state, 2)
	return 0
}

func scenarioSeedLocation(state *lua.State) int {
	sc := checkScenario(state)
	sc.SeedLocation = lua.CheckString(state, 2)
	return 0
}

func scenarioParams(state *lua.State) int {
	sc := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	if sc.Params == nil {
		sc.Params = map[string]string{}
	}
	for key, value := range tableToMap(state, 2) {
		sc.Params[strings.ToUpper(key)] = formatParam(value)
	}
	return 0
}

func scenarioSeed(state *lua.State) int {
	sc := checkScenario(state)
	sc.Seed = int64(lua.CheckInteger(state, 2))
	return 0
}

func scenarioMaxEras(state *lua.State) int {
	sc := checkScenario(state)
	sc.MaxEras = lua.CheckInteger(state, 2)
	return 0
}

func scenarioOutput(state *lua.State) int {
	sc := checkScenario(state)
	sc.Output = lua.CheckString(state, 2)
	return 0
}

func scenarioDump(state *lua.State) int {
	sc := checkScenario(state)
	sc.Dump = lua.CheckString(state, 2)
	return 0
}

func scenarioExpect(state *lua.State) int {
	sc := checkScenario(state)
	lua.CheckType(state, 2, lua.TypeTable)
	for key, value := range tableToMap(state, 2) {
		switch key {
		case "started":
			b, _ := value.(bool)
			sc.Expect.Started = &b
		case "converged":
			b, _ := value.(bool)
			sc.Expect.Converged = &b
		case "replay":
			b, _ := value.(bool)
			sc.Expect.Replay = b
		case "max_era":
			n, _ := value.(int)
			sc.Expect.MaxEra = n
		case "min_entries":
			n, _ := value.(int)
			sc.Expect.MinEntries = n
		default:
			lua.Errorf(state, "unknown expectation '%s'", key)
		}
	}
	return 0
}

// randomWords(rows, count, length, seed) builds count random spellings of
// length phonemes each from a phoneme table.
func randomWords(state *lua.State) int {
	lua.CheckType(state, 1, lua.TypeTable)
	table := phonetics.Table(stringRows(state, 1))
	count := lua.CheckInteger(state, 2)
	length := lua.CheckInteger(state, 3)
	seed := int64(lua.OptInteger(state, 4, 0))

	rng, err := random.NewRand(seed)
	if err != nil {
		lua.Errorf(state, "random source: %s", err.Error())
		return 0
	}
	state.CreateTable(count, 0)
	for i := 1; i <= count; i++ {
		var b strings.Builder
		for j := 0; j < length; j++ {
			c, ok := table.RandomPhoneme(rng)
			if !ok {
				break
			}
			cell, _ := table.Cell(c)
			b.WriteString(cell)
		}
		state.PushString(b.String())
		state.RawSetInt(-2, i)
	}
	return 1
}

func formatParam(value any) string {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func stringList(state *lua.State, index int) []string {
	values, _ := tableToGo(state, index).([]any)
	out := make([]string, 0, len(values))
	for _, value := range values {
		out = append(out, formatParam(value))
	}
	return out
}

// stringRows reads an array of arrays. Lua cannot hold nil inside an array,
// so blank cells are written as "".
func stringRows(state *lua.State, index int) [][]string {
	rows, _ := tableToGo(state, index).([]any)
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells, _ := row.([]any)
		line := make([]string, 0, len(cells))
		for _, cell := range cells {
			line = append(line, formatParam(cell))
		}
		out = append(out, line)
	}
	return out
}

func tableToMap(state *lua.State, index int) map[string]any {
	output := map[string]any{}
	if state.TypeOf(index) != lua.TypeTable {
		return output
	}

	index = state.AbsIndex(index)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) == lua.TypeString {
			key, _ := state.ToString(-2)
			output[key] = luaToGo(state, -1)
		}
		state.Pop(1)
	}
	return output
}

func luaToGo(state *lua.State, index int) any {
	switch state.TypeOf(index) {
	case lua.TypeString:
		value, _ := state.ToString(index)
		return value
	case lua.TypeNumber:
		value, _ := state.ToNumber(index)
		return normalizeNumber(value)
	case lua.TypeBoolean:
		return state.ToBoolean(index)
	case lua.TypeTable:
		return tableToGo(state, index)
	default:
		return nil
	}
}

func tableToGo(state *lua.State, index int) any {
	if state.TypeOf(index) != lua.TypeTable {
		return nil
	}

	index = state.AbsIndex(index)
	isArray := true
	maxIndex := 0
	count := 0
	state.PushNil()
	for state.Next(index) {
		if isArray {
			if state.TypeOf(-2) != lua.TypeNumber {
				isArray = false
			} else if idx, ok := state.ToInteger(-2); ok && idx > 0 {
				count++
				if idx > maxIndex {
					maxIndex = idx
				}
			} else {
				isArray = false
			}
		}
		state.Pop(1)
	}

	if isArray && maxIndex == count {
		result := make([]any, 0, maxIndex)
		for i := 1; i <= maxIndex; i++ {
			state.RawGetInt(index, i)
			result = append(result, luaToGo(state, -1))
			state.Pop(1)
		}
		return result
	}

	return tableToMap(state, index)
}

func normalizeNumber(value float64) any {
	if math.Mod(value, 1) == 0 {
		return int(value)
	}
	return value
}
