package harness

const javascriptHarness = `"use strict";

const fs = require("fs");
const vm = require("vm");
const util = require("util");
const { performance } = require("perf_hooks");

const SOLUTION_PATH = "{{.SolutionPath}}";
const TESTS_PATH = "{{.TestsPath}}";
const ENTRY_POINT = {{if .EntryPoint}}"{{.EntryPoint}}"{{else}}null{{end}};

const START_SENTINEL = "__RESULTS_JSON_START__";
const END_SENTINEL = "__RESULTS_JSON_END__";

function deepEqual(a, b) {
  if (a === null || a === undefined || b === null || b === undefined) {
    return (a === null || a === undefined) && (b === null || b === undefined);
  }
  if (Array.isArray(a) && Array.isArray(b)) {
    if (a.length !== b.length) return false;
    for (let i = 0; i < a.length; i++) {
      if (!deepEqual(a[i], b[i])) return false;
    }
    return true;
  }
  if (Array.isArray(a) || Array.isArray(b)) return false;
  if (typeof a === "object" && typeof b === "object") {
    const keysA = Object.keys(a);
    const keysB = Object.keys(b);
    if (keysA.length !== keysB.length) return false;
    for (const k of keysA) {
      if (!Object.prototype.hasOwnProperty.call(b, k)) return false;
      if (!deepEqual(a[k], b[k])) return false;
    }
    return true;
  }
  if (typeof a !== typeof b) return false;
  return a === b;
}

function jsonable(value) {
  if (value === undefined) return null;
  try {
    JSON.stringify(value);
    return value;
  } catch (err) {
    return String(value);
  }
}

function emit(payload) {
  process.stdout.write(START_SENTINEL + "\n");
  process.stdout.write(JSON.stringify(payload) + "\n");
  process.stdout.write(END_SENTINEL + "\n");
}

function emitError(message) {
  emit({
    status: "error",
    error_message: message,
    passed_count: 0,
    failed_count: 0,
    all_passed: false,
    total_execution_time_seconds: 0.0,
    test_results: [],
  });
}

function main() {
  const tests = JSON.parse(fs.readFileSync(TESTS_PATH, "utf8"));
  const source = fs.readFileSync(SOLUTION_PATH, "utf8");

  let captured = "";
  const capture = function () {
    captured += util.format.apply(null, arguments) + "\n";
  };
  const sandboxConsole = { log: capture, error: capture, warn: capture, info: capture, debug: capture };

  const context = vm.createContext({
    console: sandboxConsole,
    module: { exports: {} },
    exports: {},
  });

  if (ENTRY_POINT === null) {
    emitError("NoEntryPointError: no function definition found in submission");
    return;
  }

  // Lexical bindings (const/let) never land on the context object, so
  // the entry point is captured in the same script that loads the
  // candidate source.
  const loader =
    source +
    "\n;globalThis.__harnessEntry = (typeof " + ENTRY_POINT + " === \"function\") ? " + ENTRY_POINT + " : undefined;";
  try {
    vm.runInContext(loader, context, { filename: SOLUTION_PATH });
  } catch (err) {
    emitError("candidate source failed to load: " + String(err));
    return;
  }

  let fn = context.__harnessEntry;
  if (typeof fn !== "function" && typeof context.module.exports === "function") {
    fn = context.module.exports;
  }
  if (typeof fn !== "function") {
    emitError("NoEntryPointError: \"" + ENTRY_POINT + "\" is not a function in the submission");
    return;
  }

  const results = [];
  let passedCount = 0;
  let failedCount = 0;
  let totalTime = 0.0;

  for (let idx = 0; idx < tests.length; idx++) {
    const testCase = tests[idx];
    const arg = testCase.input;
    const expected = testCase.expected_output;
    let output = null;
    let error = null;
    let elapsed = 0.0;
    captured = "";

    const started = performance.now();
    try {
      if (Array.isArray(arg)) {
        output = fn.apply(null, arg);
      } else {
        output = fn(arg);
      }
    } catch (err) {
      error = String(err);
      output = null;
    } finally {
      elapsed = (performance.now() - started) / 1000.0;
    }

    if (captured) {
      process.stdout.write(captured);
    }

    const ok = error === null && deepEqual(output, expected);
    if (ok) {
      passedCount++;
    } else {
      failedCount++;
    }
    totalTime += elapsed;

    results.push({
      test_case_id: idx,
      input: arg === undefined ? null : arg,
      expected_output: expected === undefined ? null : expected,
      passed: ok,
      output: error === null ? jsonable(output) : null,
      error: error,
      execution_time_seconds: elapsed,
      is_hidden: Boolean(testCase.is_hidden),
    });
  }

  emit({
    status: "success",
    passed_count: passedCount,
    failed_count: failedCount,
    all_passed: failedCount === 0 && passedCount > 0,
    total_execution_time_seconds: totalTime,
    test_results: results,
  });
}

main();
`
