package harness

const pythonHarness = `import contextlib
import io
import json
import time

SOLUTION_PATH = "{{.SolutionPath}}"
TESTS_PATH = "{{.TestsPath}}"
ENTRY_POINT = {{if .EntryPoint}}"{{.EntryPoint}}"{{else}}None{{end}}

START_SENTINEL = "__RESULTS_JSON_START__"
END_SENTINEL = "__RESULTS_JSON_END__"


def deep_equal(a, b):
    if isinstance(a, bool) or isinstance(b, bool):
        return isinstance(a, bool) and isinstance(b, bool) and a == b
    if isinstance(a, (int, float)) and isinstance(b, (int, float)):
        return a == b
    # Tuples serialize to JSON arrays, so they compare as sequences;
    # keeps this comparator in parity with the host-side rescore of the
    # emitted JSON output.
    if isinstance(a, (list, tuple)) and isinstance(b, (list, tuple)):
        return len(a) == len(b) and all(deep_equal(x, y) for x, y in zip(a, b))
    if isinstance(a, dict) and isinstance(b, dict):
        return set(a) == set(b) and all(deep_equal(a[k], b[k]) for k in a)
    if a is None or b is None:
        return a is None and b is None
    if type(a) is not type(b):
        return False
    return a == b


def jsonable(value):
    try:
        json.dumps(value)
        return value
    except (TypeError, ValueError):
        return repr(value)


def emit(payload):
    print(START_SENTINEL)
    print(json.dumps(payload))
    print(END_SENTINEL)


def emit_error(message):
    emit({
        "status": "error",
        "error_message": message,
        "passed_count": 0,
        "failed_count": 0,
        "all_passed": False,
        "total_execution_time_seconds": 0.0,
        "test_results": [],
    })


def main():
    with open(TESTS_PATH) as f:
        tests = json.load(f)
    with open(SOLUTION_PATH) as f:
        source = f.read()

    namespace = {"__name__": "__candidate__"}
    try:
        exec(compile(source, SOLUTION_PATH, "exec"), namespace)
    except BaseException as exc:
        emit_error("candidate source failed to load: %s: %s" % (type(exc).__name__, exc))
        return

    if ENTRY_POINT is None:
        emit_error("NoEntryPointError: no function definition found in submission")
        return
    fn = namespace.get(ENTRY_POINT)
    if not callable(fn):
        emit_error("NoEntryPointError: %r is not a callable in the submission" % ENTRY_POINT)
        return

    results = []
    passed_count = 0
    failed_count = 0
    total_time = 0.0

    for idx, case in enumerate(tests):
        arg = case.get("input")
        expected = case.get("expected_output")
        output = None
        error = None
        elapsed = 0.0
        captured = io.StringIO()
        try:
            with contextlib.redirect_stdout(captured), contextlib.redirect_stderr(captured):
                started = time.perf_counter()
                try:
                    if isinstance(arg, list):
                        output = fn(*arg)
                    elif isinstance(arg, dict):
                        output = fn(**arg)
                    else:
                        output = fn(arg)
                finally:
                    elapsed = time.perf_counter() - started
        except BaseException as exc:
            error = "%s: %s" % (type(exc).__name__, exc)
            output = None

        text = captured.getvalue()
        if text:
            print(text, end="")

        ok = error is None and deep_equal(output, expected)
        if ok:
            passed_count += 1
        else:
            failed_count += 1
        total_time += elapsed

        results.append({
            "test_case_id": idx,
            "input": arg,
            "expected_output": expected,
            "passed": ok,
            "output": jsonable(output) if error is None else None,
            "error": error,
            "execution_time_seconds": elapsed,
            "is_hidden": bool(case.get("is_hidden", False)),
        })

    emit({
        "status": "success",
        "passed_count": passed_count,
        "failed_count": failed_count,
        "all_passed": failed_count == 0 and passed_count > 0,
        "total_execution_time_seconds": total_time,
        "test_results": results,
    })


if __name__ == "__main__":
    main()
`
