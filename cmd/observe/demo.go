package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vango-dev/observe/pkg/observe"
)

func demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the observation demo",
		Long: `Run a scripted session against a wrapped object and array, printing
the tracks and triggers each step causes.

The object holds a nested grade with a totalScore getter; the array has a
hole and a nested object. Steps cover reads, writes, identity, has, delete,
iteration, implicit length growth, searches and array mutation methods.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runDemo(newPrinter(cmd.OutOrStdout(), noColorFlag(cmd)))
		},
	}
}

// demoObserver prints each hook call as it happens.
type demoObserver struct {
	p *printer
}

func (d demoObserver) Track(target *observe.Object, op observe.TrackOp, key observe.Key) {
	fmt.Fprintf(d.p.w, "    %s %s %s\n", d.p.paint("track", "#38bdf8"), op, key)
}

func (d demoObserver) Trigger(target *observe.Object, op observe.TriggerOp, key observe.Key) {
	fmt.Fprintf(d.p.w, "    %s %s %s\n", d.p.paint("trigger", "#f59e0b"), op, key)
}

type demoStep struct {
	title string
	run   func() any
}

func runDemo(p *printer) {
	grade := observe.NewObject().
		With("math", 90).
		With("english", 15)
	grade.DefineAccessor("totalScore", func(this observe.Target) any {
		math := observe.ToNumber(this.GetProperty(observe.Name("math"), this))
		english := observe.ToNumber(this.GetProperty(observe.Name("english"), this))
		return math + english
	}, nil)
	obj := observe.NewObject().
		With("name", "labmen").
		With("age", 18).
		With("grade", grade)
	state := observe.Reactive(obj).(*observe.Proxy)

	o := observe.NewObject().With("a", 4)
	arr := observe.NewArray(3, o, observe.Hole, 3)
	list := observe.Reactive(arr).(*observe.Proxy)

	steps := []demoStep{
		{"state.name", func() any { return state.Get("name") }},
		{`state.name = "xiaoMing"`, func() any { return state.Set("name", "xiaoMing") }},
		{`state.name = "xiaoMing" again`, func() any { return state.Set("name", "xiaoMing") }},
		{"Reactive(obj) == state", func() any { return observe.Reactive(obj) == any(state) }},
		{"Reactive(state) == state", func() any { return observe.Reactive(state) == any(state) }},
		{"state.grade.totalScore", func() any {
			return state.Get("grade").(*observe.Proxy).Get("totalScore")
		}},
		{`"age" in state`, func() any { return state.Has("age") }},
		{"delete state.age", func() any { return state.Delete("age") }},
		{"keys(state)", func() any { return state.Keys() }},
		{"state.a = 1", func() any { return state.Set("a", 1) }},
		{"list[0]", func() any { return list.Get(0) }},
		{"list[1] = 22", func() any { return list.Set(1, 22) }},
		{"list[4] = 44", func() any { return list.Set(4, 44) }},
		{"for i < list.length: list[i]", func() any {
			n := 0
			for i := 0; i < list.Len(); i++ {
				list.Get(i)
				n++
			}
			return n
		}},
		{"list.indexOf(44)", func() any { return list.Call("indexOf", 44) }},
		{"list[10] = 9", func() any { return list.Set(10, 9) }},
		{"list.length = 1", func() any { return list.Set("length", 1) }},
		{"list.push(1)", func() any { return list.Call("push", 1) }},
	}

	p.banner()
	obs := demoObserver{p: p}
	for _, step := range steps {
		fmt.Fprintf(p.w, "%s %s\n", p.paint("›", "#a78bfa"), step.title)
		var result any
		observe.WithObserver(obs, func() {
			result = step.run()
		})
		p.info("= %s", describe(result))
	}

	fmt.Fprintln(p.w)
	p.success("final state %s", describe(obj))
	p.success("final list  %s", describe(arr))
}

// describe renders v as JSON when it can, and with %v otherwise.
func describe(v any) string {
	if keys, ok := v.([]observe.Key); ok {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		v = names
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
