package exception

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	A = Declare("AException")
	B = Declare("BException")
	C = Declare("CException")
	D = Declare("DException")
)

// captureDiagnostics redirects unhandled-exception output for one test.
func captureDiagnostics(t *testing.T) *bytes.Buffer {
	buf := &bytes.Buffer{}
	old := SetDiagnostics(buf)
	t.Cleanup(func() { SetDiagnostics(old) })
	return buf
}

func TestTry_NormalCompletion(t *testing.T) {
	captureDiagnostics(t)

	tests := []struct {
		name    string
		finally bool
		want    Status
	}{
		{name: "without finally", finally: false, want: Entered},
		{name: "with finally", finally: true, want: Finalized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				ran, caught, finalized int
				depth                  int
			)
			b := Try(func() {
				ran++
				depth = Depth()
			}).Catch(A, func(*Frame) { caught++ })
			if tt.finally {
				b.Final(func() { finalized++ })
			}

			assert.Equal(t, tt.want, b.End())
			assert.Equal(t, 1, ran)
			assert.Equal(t, 1, depth)
			assert.Equal(t, 0, caught)
			if tt.finally {
				assert.Equal(t, 1, finalized)
			}
			assert.Equal(t, 0, Depth())
			assert.Nil(t, Current())
		})
	}
}

func TestCatch_FirstMatchingClauseOnly(t *testing.T) {
	var got []string
	status := Try(func() {
		Throwf(B, "boom %d", 7)
	}).Catch(A, func(*Frame) {
		got = append(got, "A")
	}).Catch(B, func(f *Frame) {
		got = append(got, "B:"+f.Message())
	}).Catch(B, func(*Frame) {
		got = append(got, "B again")
	}).End()

	assert.Equal(t, Handled, status)
	assert.Equal(t, []string{"B:boom 7"}, got)
	assert.Equal(t, 0, Depth())
}

func TestCatch_SameNameDifferentIdentity(t *testing.T) {
	buf := captureDiagnostics(t)
	first := Declare("Twin")
	second := Declare("Twin")
	require.False(t, first.Is(second))

	caught := false
	status := Try(func() {
		Throw(first)
	}).Catch(second, func(*Frame) {
		caught = true
	}).End()

	assert.False(t, caught)
	assert.Equal(t, Thrown, status)
	assert.True(t, strings.HasPrefix(buf.String(), "Twin: Twin\n raised in "))
}

func TestThrow_OnlyFirstOfSequenceTransfers(t *testing.T) {
	var got []string
	reached := false
	Try(func() {
		Throwf(A, "A begin")
		Throwf(B, "B begin")
		reached = true
	}).Catch(A, func(*Frame) {
		got = append(got, "A")
	}).Catch(B, func(*Frame) {
		got = append(got, "B")
	}).End()

	assert.False(t, reached)
	assert.Equal(t, []string{"A"}, got)
}

func TestNested_PropagatesToOutermost(t *testing.T) {
	captureDiagnostics(t)

	for _, n := range []int{1, 2, 5, 16} {
		t.Run(fmt.Sprintf("depth %d", n), func(t *testing.T) {
			var (
				events []string
				caught int
			)

			var nest func(level int)
			nest = func(level int) {
				if level == n {
					Throwf(C, "from level %d", level)
					return
				}
				Try(func() {
					nest(level + 1)
				}).Catch(D, func(*Frame) {
					events = append(events, "wrong catch")
				}).Final(func() {
					events = append(events, fmt.Sprintf("finally %d", level))
				}).End()
			}

			status := Try(func() {
				nest(1)
			}).Catch(C, func(f *Frame) {
				caught++
				events = append(events, "catch "+f.Message())
			}).End()

			want := make([]string, 0, n)
			for level := n - 1; level >= 1; level-- {
				want = append(want, fmt.Sprintf("finally %d", level))
			}
			want = append(want, fmt.Sprintf("catch from level %d", n))

			assert.Equal(t, Handled, status)
			assert.Equal(t, 1, caught)
			assert.Equal(t, want, events)
			assert.Equal(t, 0, Depth())
		})
	}
}

func TestThrow_UnhandledPrintsOnce(t *testing.T) {
	buf := captureDiagnostics(t)

	finals := 0
	status := Try(func() {
		Try(func() {
			Throwf(D, "nobody wants %s", "me")
		}).Catch(A, func(*Frame) {}).Final(func() { finals++ }).End()
	}).Catch(B, func(*Frame) {}).Final(func() { finals++ }).End()

	out := buf.String()
	assert.Equal(t, Thrown, status)
	assert.Equal(t, 2, finals)
	assert.Equal(t, 1, strings.Count(out, "raised in"))
	assert.True(t, strings.HasPrefix(out, "DException: nobody wants me\n raised in "))
	assert.Equal(t, 0, Depth())

	// the goroutine keeps working afterwards
	assert.Equal(t, Handled, Try(func() { Throw(A) }).Catch(A, func(*Frame) {}).End())
}

func TestThrow_Orphan(t *testing.T) {
	tests := []struct {
		name  string
		throw func()
		want  string
	}{
		{
			name:  "explicit origin with cause",
			throw: func() { ThrowFrom(C, "main", "trycatch.c", 42, "null %s", "C") },
			want:  "CException: null C\n raised in main at trycatch.c:42\n",
		},
		{
			name:  "no cause prints the tag name",
			throw: func() { ThrowFrom(D, "main", "trycatch.c", 7, "") },
			want:  "DException: DException\n raised in main at trycatch.c:7\n",
		},
		{
			name:  "unknown origin",
			throw: func() { ThrowFrom(A, "", "", 0, "lost") },
			want:  "AException: lost\n raised in ? at ?:0\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureDiagnostics(t)
			tt.throw()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestThrow_CallerOrigin(t *testing.T) {
	var (
		frame *Frame
		line  int
	)
	Try(func() {
		_, _, line, _ = runtime.Caller(0)
		Throw(B)
	}).Catch(B, func(f *Frame) {
		frame = f
	}).End()

	require.NotNil(t, frame)
	assert.Equal(t, line+1, frame.Origin().Line)
	assert.True(t, strings.HasSuffix(frame.Origin().File, "exception_test.go"))
	assert.Contains(t, frame.Origin().Func, "TestThrow_CallerOrigin")
	assert.Equal(t, "", frame.Message())
	assert.Equal(t, "BException", frame.Error())
}

func TestRethrow_KeepsTagOriginAndMessage(t *testing.T) {
	var inner, outer *Frame
	Try(func() {
		Try(func() {
			Throwf(A, "original %d", 1)
		}).Catch(A, func(f *Frame) {
			inner = f
			f.Rethrow()
		}).End()
	}).Catch(A, func(f *Frame) {
		outer = f
	}).End()

	require.NotNil(t, inner)
	require.NotNil(t, outer)
	assert.NotSame(t, inner, outer)
	assert.Same(t, A, outer.Tag())
	assert.Equal(t, inner.Origin(), outer.Origin())
	assert.Equal(t, "original 1", outer.Message())
	assert.Equal(t, "AException: original 1", outer.Error())
	assert.Equal(t, 0, Depth())
}

func TestRethrow_Orphan(t *testing.T) {
	buf := captureDiagnostics(t)

	after := false
	status := Try(func() {
		ThrowFrom(B, "worker", "job.go", 9, "lost %s", "job")
	}).Catch(B, func(f *Frame) {
		Rethrow(f)
		after = true
	}).End()

	assert.Equal(t, Handled, status)
	assert.True(t, after)
	assert.Equal(t, "BException: lost job\n raised in worker at job.go:9\n", buf.String())
}

func TestCatch_HandlerThrowRunsFinally(t *testing.T) {
	var events []string
	Try(func() {
		Try(func() {
			Throw(A)
		}).Catch(A, func(*Frame) {
			events = append(events, "catch A")
			Throwf(B, "while handling A")
		}).Final(func() {
			events = append(events, "finally")
		}).End()
		events = append(events, "unreachable")
	}).Catch(B, func(f *Frame) {
		events = append(events, "catch B: "+f.Message())
	}).End()

	assert.Equal(t, []string{"catch A", "finally", "catch B: while handling A"}, events)
	assert.Equal(t, 0, Depth())
}

func TestThrow_DeepCallTree(t *testing.T) {
	var deep func(n int)
	deep = func(n int) {
		if n == 0 {
			Throwf(C, "bottom")
		}
		deep(n - 1)
	}

	var msg string
	Try(func() { deep(50) }).Catch(C, func(f *Frame) { msg = f.Message() }).End()
	assert.Equal(t, "bottom", msg)
}

func TestTry_ForeignPanicPassesThrough(t *testing.T) {
	finals := 0
	assert.PanicsWithValue(t, "not an exception", func() {
		Try(func() {
			Try(func() {
				panic("not an exception")
			}).Catch(A, func(*Frame) {}).Final(func() { finals++ }).End()
		}).Final(func() { finals++ }).End()
	})
	assert.Equal(t, 2, finals)
	assert.Equal(t, 0, Depth())
}

func TestThrow_MessageTruncated(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{name: "short", in: 10, want: 10},
		{name: "exact", in: MessageLength, want: MessageLength},
		{name: "over by one", in: MessageLength + 1, want: MessageLength},
		{name: "far over", in: 4 * MessageLength, want: MessageLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			long := strings.Repeat("x", tt.in)
			var msg string
			Try(func() {
				Throwf(A, "%s", long)
			}).Catch(A, func(f *Frame) { msg = f.Message() }).End()
			assert.Len(t, msg, tt.want)
			assert.Equal(t, long[:tt.want], msg)
		})
	}
}

func TestThrowf_CauseIsFormatted(t *testing.T) {
	tests := []struct {
		name   string
		format string
		args   []interface{}
		want   string
	}{
		{name: "no cause", format: "", want: ""},
		{name: "plain text", format: "query failed", want: "query failed"},
		{name: "escaped percent without args", format: "100%% done", want: "100% done"},
		{name: "with args", format: "%d rows in %s", args: []interface{}{3, "t1"}, want: "3 rows in t1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg string
			Try(func() {
				Throwf(A, tt.format, tt.args...)
			}).Catch(A, func(f *Frame) { msg = f.Message() }).End()
			assert.Equal(t, tt.want, msg)
		})
	}
}

func TestThrow_TruncatedAtByteLevel(t *testing.T) {
	long := strings.Repeat("x", MessageLength-1) + "é"
	var msg string
	Try(func() {
		Throwf(A, "%s", long)
	}).Catch(A, func(f *Frame) { msg = f.Message() }).End()
	assert.Len(t, msg, MessageLength)
	assert.Equal(t, long[:MessageLength], msg)
}

func TestStruct_Block(t *testing.T) {
	var caught *Tag
	b := Block{
		Try: func() { Throw(D) },
		Catches: []Clause{
			{Tag: C, Handle: func(f *Frame) { caught = f.Tag() }},
			{Tag: D, Handle: func(f *Frame) { caught = f.Tag() }},
		},
	}
	assert.Equal(t, Handled, b.Do())
	assert.Same(t, D, caught)
}

func TestInit_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Init()
		}()
	}
	wg.Wait()
	assert.NotNil(t, slots())
}

func TestGoroutines_Isolated(t *testing.T) {
	const threads = 64

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)
	// every goroutine holds an outer frame while others throw
	start := make(chan struct{})
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			var got []string
			Try(func() {
				<-start
				for round := 0; round < 20; round++ {
					Try(func() {
						Throwf(A, "%d", id)
					}).Catch(A, func(f *Frame) {
						got = append(got, f.Message())
					}).End()
				}
				Throwf(B, "%d", id)
			}).Catch(B, func(f *Frame) {
				got = append(got, "B"+f.Message())
			}).End()

			want := fmt.Sprint(id)
			ok := len(got) == 21 && got[20] == "B"+want
			for i := 0; ok && i < 20; i++ {
				ok = got[i] == want
			}
			if !ok || Depth() != 0 {
				mu.Lock()
				failed = append(failed, fmt.Sprintf("goroutine %d: %v", id, got))
				mu.Unlock()
			}
		}(i)
	}
	close(start)
	wg.Wait()
	assert.Empty(t, failed)
}
