package eventjs

// helpersJS installs globalThis.apex, small predicates over the event objects
// handed to filter and transform hooks.
const helpersJS = `
(function(){
  function field(obj, path) {
    if (!obj || typeof path !== "string" || path === "") return null;
    const parts = path.split(".");
    let cur = obj;
    for (const p of parts) {
      if (cur == null) return null;
      cur = cur[p];
    }
    return (cur === undefined) ? null : cur;
  }

  function isType(event) {
    if (!event || typeof event.type !== "string") return false;
    const types = Array.prototype.slice.call(arguments, 1);
    return types.indexOf(event.type) >= 0;
  }

  function durationMs(event) {
    if (!event || typeof event.duration !== "number") return null;
    return event.duration / 1e6;
  }

  function matches(event, path, re) {
    const v = field(event, path);
    if (typeof v !== "string") return false;
    if (!(re instanceof RegExp)) return false;
    return re.test(v);
  }

  globalThis.apex = {
    field,
    isType,
    durationMs,
    matches,
  };
})();
`
