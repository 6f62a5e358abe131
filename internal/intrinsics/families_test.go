package intrinsics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lowercore/internal/engine"
	"github.com/roach88/lowercore/internal/ir"
	"github.com/roach88/lowercore/internal/testutil"
)

// call resolves name for sig and executes it as a nested call from f.
func call(t *testing.T, r *Registry, name string, sig *ir.FunctionType, f *engine.Frame, args ...ir.Value) (ir.Value, error) {
	t.Helper()
	target, err := r.ResolveIntrinsic(name, sig)
	require.NoError(t, err)
	return target.Operation.Execute(f.WithArgs(args...))
}

// mustCall is call for invocations expected to succeed.
func mustCall(t *testing.T, r *Registry, name string, sig *ir.FunctionType, f *engine.Frame, args ...ir.Value) ir.Value {
	t.Helper()
	v, err := call(t, r, name, sig, f, args...)
	require.NoError(t, err, name)
	return v
}

func alloc(t *testing.T, f *engine.Frame, n int64) uint64 {
	t.Helper()
	p, err := f.Alloc.Allocate(n, 8)
	require.NoError(t, err)
	return p
}

func TestBits(t *testing.T) {
	r := newDefault(t)
	f := testutil.NewFrame(t)
	i32 := ir.NewFunction(ir.Int32, ir.Int32, ir.Int1)

	assert.Equal(t, ir.I32(32), mustCall(t, r, "@llvm.ctlz.i32", i32, f, ir.I32(0), ir.I1(false)))
	assert.Equal(t, ir.I32(0), mustCall(t, r, "@llvm.ctlz.i32", i32, f, ir.I32(-1), ir.I1(false)))
	assert.Equal(t, ir.I32(32), mustCall(t, r, "@llvm.cttz.i32", i32, f, ir.I32(0), ir.I1(false)))
	assert.Equal(t, ir.I32(3), mustCall(t, r, "@llvm.cttz.i32", i32, f, ir.I32(8), ir.I1(false)))
	assert.Equal(t, ir.I16(16), mustCall(t, r, "@llvm.ctpop.i16", ir.NewFunction(ir.Int16, ir.Int16), f, ir.I16(-1)))
	assert.Equal(t, ir.I64(7), mustCall(t, r, "@llvm.ctlz.i64", ir.NewFunction(ir.Int64, ir.Int64, ir.Int1), f, ir.I64(1<<56), ir.I1(true)))
	assert.Equal(t, ir.I32(0x44332211), mustCall(t, r, "@llvm.bswap.i32", ir.NewFunction(ir.Int32, ir.Int32), f, ir.I32(0x11223344)))
	assert.Equal(t, ir.I16(0x0201), mustCall(t, r, "@llvm.bswap.i16", ir.NewFunction(ir.Int16, ir.Int16), f, ir.I16(0x0102)))
}

func TestOverflow(t *testing.T) {
	r := newDefault(t)
	f := testutil.NewFrame(t)
	sig := ir.NewFunction(ir.NewStruct(false, ir.Int8, ir.Int1), ir.Int8, ir.Int8)
	flagAt := uint64(ir.DefaultLayout.StructLayout(ir.NewStruct(false, ir.Int8, ir.Int1)).Offsets[1])

	tests := []struct {
		name     string
		a, b     ir.Value
		want     ir.Value
		overflow bool
	}{
		{"@llvm.sadd.with.overflow.i8", ir.I8(127), ir.I8(1), ir.I8(-128), true},
		{"@llvm.sadd.with.overflow.i8", ir.I8(-1), ir.I8(1), ir.I8(0), false},
		{"@llvm.uadd.with.overflow.i8", ir.I8(-1), ir.I8(1), ir.I8(0), true},
		{"@llvm.usub.with.overflow.i8", ir.I8(0), ir.I8(1), ir.I8(-1), true},
		{"@llvm.ssub.with.overflow.i8", ir.I8(-128), ir.I8(1), ir.I8(127), true},
		{"@llvm.smul.with.overflow.i8", ir.I8(-8), ir.I8(16), ir.I8(-128), false},
		{"@llvm.umul.with.overflow.i8", ir.I8(16), ir.I8(16), ir.I8(0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := mustCall(t, r, tt.name, sig, f, tt.a, tt.b)
			addr, ok := v.(ir.Address)
			require.True(t, ok, "result is %T", v)

			got, err := f.Load(ir.Int8, uint64(addr))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			flag, err := f.Load(ir.Int1, uint64(addr)+flagAt)
			require.NoError(t, err)
			assert.Equal(t, ir.I1(tt.overflow), flag)
		})
	}
}

func TestMemory_SetAndCopy(t *testing.T) {
	r := newDefault(t)
	f := testutil.NewFrame(t)
	dst, src := alloc(t, f, 8), alloc(t, f, 8)

	v := mustCall(t, r, "@llvm.memset.p0.i64", ir.NewFunction(ir.Void, ir.Ptr, ir.Int8, ir.Int64, ir.Int1), f,
		ir.Address(dst), ir.I8(7), ir.I64(4), ir.I1(false))
	assert.Nil(t, v)
	b, err := f.Mem.Read(dst, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 7, 7, 7, 0}, b)

	require.NoError(t, f.Mem.Write(src, []byte("abcdefgh")))
	v = mustCall(t, r, "@memcpy", ir.NewFunction(ir.Ptr, ir.Ptr, ir.Ptr, ir.Int64), f,
		ir.Address(dst), ir.Address(src), ir.I64(3))
	assert.Equal(t, ir.Address(dst), v)
	b, err = f.Mem.Read(dst, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc\x07"), b)

	// Overlapping move shifts the buffer right by one.
	mustCall(t, r, "@llvm.memmove.p0.p0.i32", ir.NewFunction(ir.Void, ir.Ptr, ir.Ptr, ir.Int32, ir.Int1), f,
		ir.Address(src+1), ir.Address(src), ir.I32(4), ir.I1(false))
	b, err = f.Mem.Read(src, 6)
	require.NoError(t, err)
	assert.Equal(t, []byte("aabcdf"), b)
}

func TestAllocation(t *testing.T) {
	r := newDefault(t)
	f := testutil.NewFrame(t)

	v := mustCall(t, r, "@malloc", ir.NewFunction(ir.Ptr, ir.Int64), f, ir.I64(10))
	p := uint64(v.(ir.Address))
	assert.Zero(t, p%mallocAlign)
	require.NoError(t, f.Mem.Write(p, []byte("grow")))

	v = mustCall(t, r, "@realloc", ir.NewFunction(ir.Ptr, ir.Ptr, ir.Int64), f, ir.Address(p), ir.I64(64))
	q := uint64(v.(ir.Address))
	b, err := f.Mem.Read(q, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("grow"), b)
	_, live := f.Alloc.BlockSize(p)
	assert.False(t, live, "old block is freed")

	v = mustCall(t, r, "@calloc", ir.NewFunction(ir.Ptr, ir.Int64, ir.Int64), f, ir.I64(4), ir.I64(2))
	b, err = f.Mem.Read(uint64(v.(ir.Address)), 8)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 8), b)

	assert.Nil(t, mustCall(t, r, "@free", ir.NewFunction(ir.Void, ir.Ptr), f, ir.Address(q)))
	_, err = call(t, r, "@free", ir.NewFunction(ir.Void, ir.Ptr), f, ir.Address(q))
	assert.True(t, engine.IsMemoryFault(err))
}

func TestAllocation_Oversized(t *testing.T) {
	r := newDefault(t)
	f := testutil.NewFrame(t)
	sig2 := ir.NewFunction(ir.Ptr, ir.Int64, ir.Int64)

	_, err := call(t, r, "@calloc", sig2, f, ir.I64(1<<33), ir.I64(1<<31))
	assert.True(t, engine.IsMemoryFault(err), "count*size wraps to 0")
	_, err = call(t, r, "@calloc", sig2, f, ir.I64(1<<32), ir.I64(1<<31))
	assert.True(t, engine.IsMemoryFault(err), "count*size exceeds MaxInt64")

	_, err = call(t, r, "@malloc", ir.NewFunction(ir.Ptr, ir.Int64), f, ir.I64(math.MaxInt64))
	assert.True(t, engine.IsMemoryFault(err))
	_, err = call(t, r, "@malloc", ir.NewFunction(ir.Ptr, ir.Int64), f, ir.I64(-1))
	assert.True(t, engine.IsMemoryFault(err))
}

func TestStrings(t *testing.T) {
	r := newDefault(t)
	f := testutil.NewFrame(t)
	a, b := alloc(t, f, 16), alloc(t, f, 16)
	require.NoError(t, engine.WriteCString(f.Mem, a, "hello"))
	require.NoError(t, engine.WriteCString(f.Mem, b, "help"))

	assert.Equal(t, ir.I32(5), mustCall(t, r, "@strlen", ir.NewFunction(ir.Int32, ir.Ptr), f, ir.Address(a)))
	assert.Equal(t, ir.I64(4), mustCall(t, r, "@strlen", ir.NewFunction(ir.Int64, ir.Ptr), f, ir.Address(b)))

	cmp := ir.NewFunction(ir.Int32, ir.Ptr, ir.Ptr)
	assert.Equal(t, ir.I32(-1), mustCall(t, r, "@strcmp", cmp, f, ir.Address(a), ir.Address(b)))
	assert.Equal(t, ir.I32(0), mustCall(t, r, "@strcmp", cmp, f, ir.Address(a), ir.Address(a)))

	ctype := ir.NewFunction(ir.Int32, ir.Int32)
	assert.Equal(t, ir.I32('a'), mustCall(t, r, "@tolower", ctype, f, ir.I32('A')))
	assert.Equal(t, ir.I32(-1), mustCall(t, r, "@toupper", ctype, f, ir.I32(-1)))
	assert.Equal(t, ir.I32(1), mustCall(t, r, "@isspace", ctype, f, ir.I32('\n')))
	assert.Equal(t, ir.I32(0), mustCall(t, r, "@isalpha", ctype, f, ir.I32('1')))
}

func TestProcess(t *testing.T) {
	r := newDefault(t)

	t.Run("exit runs handlers", func(t *testing.T) {
		f := testutil.NewFrame(t)
		host := f.Host.(*engine.BasicHost)
		var ran []int32
		handler := host.Bind("handler", func(_ *engine.Frame, args []ir.Value) (ir.Value, error) {
			ran = append(ran, int32(args[0].(ir.I32)))
			return nil, nil
		})
		assert.Equal(t, ir.I32(0), mustCall(t, r, "@__cxa_atexit", ir.NewFunction(ir.Int32, ir.Ptr, ir.Ptr), f, handler, ir.I32(9)))

		_, err := call(t, r, "@exit", ir.NewFunction(ir.Void, ir.Int32), f, ir.I32(3))
		status, ok := engine.ExitStatus(err)
		require.True(t, ok)
		assert.Equal(t, 3, status)
		assert.Equal(t, engine.ErrCodeExit, engine.CodeOf(err))
		assert.Equal(t, []int32{9}, ran)
	})

	t.Run("exit without host", func(t *testing.T) {
		f := testutil.NewFrame(t)
		f.Host = nil
		_, err := call(t, r, "@exit", ir.NewFunction(ir.Void, ir.Int32), f, ir.I32(1))
		status, ok := engine.ExitStatus(err)
		require.True(t, ok)
		assert.Equal(t, 1, status)
	})

	t.Run("abort", func(t *testing.T) {
		_, err := call(t, r, "@abort", ir.NewFunction(ir.Void), testutil.NewFrame(t))
		status, ok := engine.ExitStatus(err)
		require.True(t, ok)
		assert.Equal(t, abortStatus, status)
		assert.Equal(t, engine.ErrCodeAbort, engine.CodeOf(err))
	})

	t.Run("signal returns previous handler", func(t *testing.T) {
		f := testutil.NewFrame(t)
		sig := ir.NewFunction(ir.Ptr, ir.Int32, ir.Ptr)
		assert.Equal(t, ir.FunctionAddress(0), mustCall(t, r, "@signal", sig, f, ir.I32(2), ir.FunctionAddress(0x1010)))
		assert.Equal(t, ir.FunctionAddress(0x1010), mustCall(t, r, "@signal", sig, f, ir.I32(2), ir.FunctionAddress(0)))
	})

	t.Run("host services need a host", func(t *testing.T) {
		f := testutil.NewFrame(t)
		f.Host = nil
		_, err := call(t, r, "@atexit", ir.NewFunction(ir.Int32, ir.Ptr), f, ir.FunctionAddress(0x1010))
		assert.Equal(t, engine.ErrCodeNoHost, engine.CodeOf(err))
	})
}

func TestRust(t *testing.T) {
	r := newDefault(t)
	f := testutil.NewFrame(t)

	msg := alloc(t, f, 8)
	require.NoError(t, f.Mem.Write(msg, []byte("boom")))
	_, err := call(t, r, "@_ZN4core9panicking5panic17h0000000000000001E", ir.NewFunction(ir.Void, ir.Ptr, ir.Int64), f,
		ir.Address(msg), ir.I64(4))
	var re *engine.RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, engine.ErrCodePanic, re.Code)
	assert.Equal(t, "boom", re.Message)
	assert.Equal(t, 101, re.Status)
	assert.Equal(t, "@core::panicking::panic", re.Operation)

	host := f.Host.(*engine.BasicHost)
	entered := false
	main := host.Bind("main", func(*engine.Frame, []ir.Value) (ir.Value, error) {
		entered = true
		return nil, nil
	})
	v := mustCall(t, r, "@_ZN3std2rt10lang_startE", ir.NewFunction(ir.Int64, ir.Ptr, ir.Int64, ir.Ptr), f,
		main, ir.I64(0), ir.Address(0))
	assert.Equal(t, ir.I64(0), v)
	assert.True(t, entered)
}

func TestVariadic_StartActsOnCaller(t *testing.T) {
	r := newDefault(t)
	root := testutil.NewFrame(t)
	fn := root.WithVariadicArgs(1, ir.Address(0), ir.I32(7), ir.F64(0.5))

	list, err := fn.StackAlloc(ir.Int64)
	require.NoError(t, err)
	mustCall(t, r, "@llvm.va_start", ir.NewFunction(ir.Void, ir.Ptr), fn, ir.Address(list))

	v, err := fn.VANext(list)
	require.NoError(t, err)
	assert.Equal(t, ir.I32(7), v)

	cp, err := fn.StackAlloc(ir.Int64)
	require.NoError(t, err)
	mustCall(t, r, "@llvm.va_copy.p0.p0", ir.NewFunction(ir.Void, ir.Ptr, ir.Ptr), fn, ir.Address(cp), ir.Address(list))
	mustCall(t, r, "@llvm.va_end", ir.NewFunction(ir.Void, ir.Ptr), fn, ir.Address(list))

	v, err = fn.VANext(cp)
	require.NoError(t, err)
	assert.Equal(t, ir.F64(0.5), v)
}

func TestStackSaveRestore(t *testing.T) {
	r := newDefault(t)
	f := testutil.NewFrame(t)

	sp := mustCall(t, r, "@llvm.stacksave.p0", ir.NewFunction(ir.Ptr), f)
	_, err := f.StackAlloc(ir.NewArray(ir.Int64, 4))
	require.NoError(t, err)
	used := f.Stack.Used()

	mustCall(t, r, "@llvm.stackrestore.p0", ir.NewFunction(ir.Void, ir.Ptr), f, sp)
	assert.Less(t, f.Stack.Used(), used)
}

func TestMath(t *testing.T) {
	r := newDefault(t)
	f := testutil.NewFrame(t)
	f64 := ir.NewFunction(ir.Double, ir.Double)
	f80 := ir.NewFunction(ir.FP80, ir.FP80)

	assert.Equal(t, ir.F64(3), mustCall(t, r, "@llvm.sqrt.f64", f64, f, ir.F64(9)))
	assert.Equal(t, ir.F32(2), mustCall(t, r, "@sqrtf", ir.NewFunction(ir.Float, ir.Float), f, ir.F32(4)))
	assert.Equal(t, ir.F64(1), mustCall(t, r, "@fmod", ir.NewFunction(ir.Double, ir.Double, ir.Double), f, ir.F64(7), ir.F64(3)))
	assert.Equal(t, ir.F64(8), mustCall(t, r, "@llvm.powi.f64.i32", ir.NewFunction(ir.Double, ir.Double, ir.Int32), f, ir.F64(2), ir.I32(3)))
	assert.Equal(t, ir.F64(-2), mustCall(t, r, "@llvm.copysign.f64", ir.NewFunction(ir.Double, ir.Double, ir.Double), f, ir.F64(2), ir.F64(-0.5)))

	v := mustCall(t, r, "@llvm.sqrt.f80", f80, f, ir.F80FromFloat64(2.25))
	assert.Equal(t, 1.5, v.(ir.F80).Float64())
	v = mustCall(t, r, "@llvm.sqrt.f80", f80, f, ir.F80FromFloat64(-1))
	assert.True(t, v.(ir.F80).IsNaN())
	v = mustCall(t, r, "@llvm.fabs.f80", f80, f, ir.F80FromFloat64(-2.5))
	assert.Equal(t, 2.5, v.(ir.F80).Float64())

	// fmodl computes through float64 and widens the result.
	v = mustCall(t, r, "@fmodl", ir.NewFunction(ir.FP80, ir.FP80, ir.FP80), f, ir.F80FromFloat64(7.5), ir.F80FromFloat64(2))
	assert.Equal(t, 1.5, v.(ir.F80).Float64())

	assert.Equal(t, ir.I32(5), mustCall(t, r, "@abs", ir.NewFunction(ir.Int32, ir.Int32), f, ir.I32(-5)))

	ip := alloc(t, f, 8)
	assert.Equal(t, ir.F64(0.25), mustCall(t, r, "@modf", ir.NewFunction(ir.Double, ir.Double, ir.Ptr), f, ir.F64(3.25), ir.Address(ip)))
	whole, err := f.Load(ir.Double, ip)
	require.NoError(t, err)
	assert.Equal(t, ir.F64(3), whole)

	_, err = r.ResolveIntrinsic("@llvm.sqrt.f64", ir.NewFunction(ir.Int32, ir.Double))
	assert.ErrorIs(t, err, ErrSignature)
}

func TestAnnotations(t *testing.T) {
	r := newDefault(t)
	f := testutil.NewFrame(t)

	assert.Nil(t, mustCall(t, r, "@llvm.lifetime.start.p0", ir.NewFunction(ir.Void, ir.Int64, ir.Ptr), f, ir.I64(8), ir.Address(0)))
	assert.Equal(t, ir.I64(5), mustCall(t, r, "@llvm.expect.i64", ir.NewFunction(ir.Int64, ir.Int64, ir.Int64), f, ir.I64(5), ir.I64(1)))

	size := ir.NewFunction(ir.Int64, ir.Ptr, ir.Int1, ir.Int1, ir.Int1)
	assert.Equal(t, ir.I64(-1), mustCall(t, r, "@llvm.objectsize.i64.p0", size, f, ir.Address(0x10), ir.I1(false), ir.I1(false), ir.I1(false)))
	assert.Equal(t, ir.I64(0), mustCall(t, r, "@llvm.objectsize.i64.p0", size, f, ir.Address(0x10), ir.I1(true), ir.I1(false), ir.I1(false)))
	assert.Equal(t, ir.I32(-1), mustCall(t, r, "@llvm.objectsize.i32.p0i8", ir.NewFunction(ir.Int32, ir.Ptr, ir.Int1), f, ir.Address(0x10), ir.I1(false)))

	_, err := call(t, r, "@llvm.trap", ir.NewFunction(ir.Void), f)
	var re *engine.RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, engine.ErrCodeTrap, re.Code)
	assert.Equal(t, "@llvm.trap", re.Operation)

	cvt := ir.NewFunction(ir.Int32, ir.MustVector(ir.Double, 2))
	assert.Equal(t, ir.I32(2), mustCall(t, r, "@llvm.x86.sse2.cvtsd2si", cvt, f, ir.Vector{ir.F64(2.5), ir.F64(9)}))
	assert.Equal(t, ir.I32(-2147483648), mustCall(t, r, "@llvm.x86.sse2.cvtsd2si", cvt, f, ir.Vector{ir.F64(1e12), ir.F64(0)}))
}

func TestExceptions(t *testing.T) {
	r := newDefault(t)
	f := testutil.NewFrame(t)

	obj := mustCall(t, r, "@__cxa_allocate_exception", ir.NewFunction(ir.Ptr, ir.Int64), f, ir.I64(8))
	_, err := call(t, r, "@__cxa_throw", ir.NewFunction(ir.Void, ir.Ptr, ir.Ptr, ir.Ptr), f, obj, ir.Address(0x3000), ir.Address(0))
	var re *engine.RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, engine.ErrCodeUnwind, re.Code)
	assert.Equal(t, uint64(obj.(ir.Address)), re.Payload)
	assert.Equal(t, "0x3000", re.Details["typeinfo"])

	typeID := ir.NewFunction(ir.Int32, ir.Ptr)
	assert.Equal(t, ir.I32(1), mustCall(t, r, "@llvm.eh.typeid.for.p0", typeID, f, ir.Address(0x3000)))
	assert.Equal(t, ir.I32(2), mustCall(t, r, "@llvm.eh.typeid.for.p0", typeID, f, ir.Address(0x4000)))
	assert.Equal(t, ir.I32(1), mustCall(t, r, "@llvm.eh.typeid.for", typeID, f, ir.Address(0x3000)))

	assert.Equal(t, obj, mustCall(t, r, "@__cxa_begin_catch", ir.NewFunction(ir.Ptr, ir.Ptr), f, obj))
	_, err = call(t, r, "@__cxa_rethrow", ir.NewFunction(ir.Void), f)
	require.ErrorAs(t, err, &re)
	assert.Equal(t, uint64(obj.(ir.Address)), re.Payload)

	// The rethrow ended the catch; another rethrow has nothing to throw.
	_, err = call(t, r, "@__cxa_rethrow", ir.NewFunction(ir.Void), f)
	assert.Equal(t, engine.ErrCodeAbort, engine.CodeOf(err))
}

func TestComplexMultiply(t *testing.T) {
	r := newDefault(t)
	f := testutil.NewFrame(t)
	sig := ir.NewFunction(ir.NewStruct(false, ir.Double, ir.Double), ir.Double, ir.Double, ir.Double, ir.Double)

	v := mustCall(t, r, "@__muldc3", sig, f, ir.F64(1), ir.F64(2), ir.F64(3), ir.F64(4))
	addr := uint64(v.(ir.Address))
	re, err := f.Load(ir.Double, addr)
	require.NoError(t, err)
	im, err := f.Load(ir.Double, addr+8)
	require.NoError(t, err)
	assert.Equal(t, ir.F64(-5), re)
	assert.Equal(t, ir.F64(10), im)
}

func TestInterop(t *testing.T) {
	r := newDefault(t)
	f := testutil.NewFrame(t)
	name := alloc(t, f, 16)
	require.NoError(t, engine.WriteCString(f.Mem, name, "answer"))

	mustCall(t, r, "@polyglot_export", ir.NewFunction(ir.Void, ir.Ptr, ir.Int32), f, ir.Address(name), ir.I32(42))
	assert.Equal(t, ir.I32(42), mustCall(t, r, "@polyglot_import", ir.NewFunction(ir.Int32, ir.Ptr), f, ir.Address(name)))
	assert.Equal(t, ir.I1(true), mustCall(t, r, "@polyglot_is_value", ir.NewFunction(ir.Int1, ir.Int32), f, ir.I32(42)))
	assert.Equal(t, ir.I1(false), mustCall(t, r, "@polyglot_is_value", ir.NewFunction(ir.Int1, ir.Int32), f, ir.I32(41)))
}
